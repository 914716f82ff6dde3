package emotion

import (
	"context"
	"math/rand"
	"sync"

	"mindquest/internal/models"
)

// SimulatedSensor reports uniformly random labels. It stands in for a real
// classifier during demos and replays.
type SimulatedSensor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSensor creates a simulated sensor with a fixed seed
func NewSimulatedSensor(seed int64) *SimulatedSensor {
	return &SimulatedSensor{rng: rand.New(rand.NewSource(seed))}
}

func (s *SimulatedSensor) Initialize(ctx context.Context) error {
	return ctx.Err()
}

func (s *SimulatedSensor) Detect(ctx context.Context) (models.EmotionLabel, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AllEmotions[s.rng.Intn(len(models.AllEmotions))], nil
}

func (s *SimulatedSensor) Close() error {
	return nil
}
