package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// ErrDeclined is a terminal provider answer; retrying won't change it.
var ErrDeclined = errors.New("payment declined")

type Provider interface {
	Authorize(ctx context.Context, orderID string, amountCents int) (ref string, err error)
}

// Simulated declines a configured percentage of charges. It stands in for a
// real gateway in local and test environments.
type Simulated struct {
	FailRate int // 0..100
	rng      *rand.Rand
}

func NewSimulated(failRate int, seed int64) *Simulated {
	return &Simulated{FailRate: failRate, rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Authorize(ctx context.Context, orderID string, amountCents int) (string, error) {
	if amountCents < 0 {
		return "", fmt.Errorf("negative amount %d", amountCents)
	}
	if s.rng.Intn(100) < s.FailRate {
		return "", ErrDeclined
	}
	return "auth-" + uuid.NewString(), nil
}
