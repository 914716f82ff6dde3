package emotion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mindquest/internal/models"
)

type fakeSensor struct {
	mu        sync.Mutex
	initErr   error
	labels    []models.EmotionLabel
	next      int
	initCalls int
	closed    bool
}

func (f *fakeSensor) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.initErr
}

func (f *fakeSensor) Detect(ctx context.Context) (models.EmotionLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.labels) == 0 {
		return models.EmotionNeutral, nil
	}
	l := f.labels[f.next%len(f.labels)]
	f.next++
	return l, nil
}

func (f *fakeSensor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type lockedSink struct {
	mu sync.Mutex
	tr *Tracker
}

func (s *lockedSink) RecordObservation(label models.EmotionLabel, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.RecordObservation(label, ts)
}

func (s *lockedSink) SetSensorAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tr.SetSensorAvailable(available)
}

func (s *lockedSink) metrics() models.EmotionMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.Metrics()
}

func TestSamplerStopWithoutStart(t *testing.T) {
	s := NewSampler(&fakeSensor{}, NewTracker(nil), time.Second, nil)
	s.Stop()
	s.Stop()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestSamplerStartFailureDegradesTracker(t *testing.T) {
	sensor := &fakeSensor{initErr: errors.New("no camera")}
	tr := NewTracker(nil)
	s := NewSampler(sensor, tr, time.Second, nil)

	err := s.Start(context.Background())
	if !errors.Is(err, models.ErrSensorUnavailable) {
		t.Fatalf("Start() error = %v, want ErrSensorUnavailable", err)
	}
	if s.Active() {
		t.Error("sampler active after failed start")
	}
	if tr.SensorAvailable() {
		t.Error("tracker should be in emotion-agnostic mode")
	}
	if _, err := s.Poll(context.Background()); !errors.Is(err, models.ErrSensorUnavailable) {
		t.Errorf("Poll() error = %v, want ErrSensorUnavailable", err)
	}

	// caller-driven retry succeeds once the camera appears
	sensor.initErr = nil
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("retry Start() error = %v", err)
	}
	defer s.Close()
	if !tr.SensorAvailable() {
		t.Error("tracker should be emotion-aware after successful start")
	}
}

func TestSamplerStartIsIdempotent(t *testing.T) {
	sensor := &fakeSensor{}
	sink := &lockedSink{tr: NewTracker(nil)}
	s := NewSampler(sensor, sink, time.Hour, nil)

	for i := 0; i < 3; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if sensor.initCalls != 1 {
		t.Errorf("Initialize called %d times, want 1", sensor.initCalls)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !sensor.closed {
		t.Error("sensor not released on Close")
	}
}

func TestSamplerPoll(t *testing.T) {
	sensor := &fakeSensor{labels: []models.EmotionLabel{models.EmotionHappy, models.EmotionSad}}
	tr := NewTracker(nil)
	s := NewSampler(sensor, tr, time.Hour, nil)
	now := t0
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i := 0; i < 2; i++ {
		if _, err := s.Poll(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	m := tr.Metrics()
	if m.CurrentEmotion != models.EmotionSad || m.RapidChanges != 1 || m.NegativeTransitions != 1 {
		t.Errorf("unexpected metrics after polling: %+v", m)
	}
}

func TestSamplerPeriodicLoop(t *testing.T) {
	sensor := &fakeSensor{labels: []models.EmotionLabel{models.EmotionHappy}}
	sink := &lockedSink{tr: NewTracker(nil)}
	s := NewSampler(sensor, sink, 5*time.Millisecond, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.metrics().History) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if n := len(sink.metrics().History); n < 3 {
		t.Fatalf("expected at least 3 samples, got %d", n)
	}

	after := len(sink.metrics().History)
	time.Sleep(30 * time.Millisecond)
	if n := len(sink.metrics().History); n != after {
		t.Errorf("samples recorded after Close: %d -> %d", after, n)
	}
}

func TestSimulatedSensorIsDeterministic(t *testing.T) {
	a, b := NewSimulatedSensor(42), NewSimulatedSensor(42)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		la, _ := a.Detect(ctx)
		lb, _ := b.Detect(ctx)
		if la != lb {
			t.Fatalf("sample %d differs: %s vs %s", i, la, lb)
		}
		if !la.IsValid() {
			t.Fatalf("invalid label %q", la)
		}
	}
}
