package checkout

import (
	"context"
	"strconv"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Placer turns an order request into an order id.
type Placer interface {
	Place(ctx context.Context, req domain.OrderRequest) (string, error)
}

// SimulatedPlacer stands in for an orders backend. It waits Delay and then
// issues ORDER<unix millis>. It only fails when ctx is cancelled. The zero
// value places orders immediately.
type SimulatedPlacer struct {
	Delay time.Duration
	now   func() time.Time
}

func NewSimulatedPlacer(delay time.Duration) *SimulatedPlacer {
	return &SimulatedPlacer{Delay: delay, now: time.Now}
}

func (s *SimulatedPlacer) Place(ctx context.Context, _ domain.OrderRequest) (string, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	now := s.now
	if now == nil {
		now = time.Now
	}
	return "ORDER" + strconv.FormatInt(now().UnixMilli(), 10), nil
}
