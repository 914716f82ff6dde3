package emotion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindquest/internal/logger"
	"mindquest/internal/models"
)

// DefaultSampleInterval matches the webcam polling cadence of the browser client
const DefaultSampleInterval = 2 * time.Second

// Sensor produces emotion labels, typically from a camera feed and a classifier
type Sensor interface {
	Initialize(ctx context.Context) error
	Detect(ctx context.Context) (models.EmotionLabel, error)
	Close() error
}

// Sink receives sampled observations. *Tracker satisfies it; callers that share
// a tracker across goroutines pass a wrapper that serializes access.
type Sink interface {
	RecordObservation(label models.EmotionLabel, timestamp time.Time) error
	SetSensorAvailable(available bool)
}

// Sampler drives a Sensor on a fixed cadence and forwards readings to a Sink.
// Start and Stop are idempotent and Stop is safe on a sampler that never started.
type Sampler struct {
	sensor   Sensor
	sink     Sink
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu          sync.Mutex
	initialized bool
	active      bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewSampler creates an inactive sampler
func NewSampler(sensor Sensor, sink Sink, interval time.Duration, log *logger.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{
		sensor:   sensor,
		sink:     sink,
		interval: interval,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Start initializes the sensor on first use and begins periodic sampling.
// When the sensor cannot be initialized the sink is switched to emotion-agnostic
// scoring and ErrSensorUnavailable is returned; the caller decides whether to retry.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}

	if !s.initialized {
		if err := s.sensor.Initialize(ctx); err != nil {
			s.sink.SetSensorAvailable(false)
			s.log.Warn("Emotion sensor failed to initialize", "error", err)
			return fmt.Errorf("%w: %v", models.ErrSensorUnavailable, err)
		}
		s.initialized = true
		s.sink.SetSensorAvailable(true)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.active = true

	go s.run(loopCtx, s.done)

	s.log.Info("Emotion sampling started", "interval", s.interval)
	return nil
}

// Stop halts periodic sampling without releasing the sensor
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.cancel()
	s.active = false
	s.log.Info("Emotion sampling stopped")
}

// Close stops sampling, waits for the loop to exit and releases the sensor.
// It must not be called while holding a lock the sink acquires.
func (s *Sampler) Close() error {
	s.Stop()

	s.mu.Lock()
	done := s.done
	initialized := s.initialized
	s.initialized = false
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	if !initialized {
		return nil
	}
	return s.sensor.Close()
}

// Active reports whether the periodic loop is running
func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Poll takes a single reading and records it. It is the pull-style alternative
// to the periodic loop for drivers that own their own scheduling.
func (s *Sampler) Poll(ctx context.Context) (models.EmotionLabel, error) {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()

	if !initialized {
		return "", models.ErrSensorUnavailable
	}

	label, err := s.sensor.Detect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to detect emotion: %w", err)
	}
	if err := s.sink.RecordObservation(label, s.now()); err != nil {
		return "", err
	}
	return label, nil
}

func (s *Sampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("Emotion sample failed", "error", err)
			}
		}
	}
}
