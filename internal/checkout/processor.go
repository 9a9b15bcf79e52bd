// Package checkout runs order placement as an asynchronous, cancellable
// task. A placement moves from processing to exactly one of succeeded,
// failed or cancelled; each session has at most one processing placement.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/session"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already processing")
	ErrPlacementNotFound  = errors.New("placement not found")
	ErrPlacementFinished  = errors.New("placement already finished")
)

const SuccessMessage = "Order placed successfully!"

var tracer = otel.Tracer("storefront/checkout")

type placement struct {
	domain.Placement
	cancel context.CancelFunc
	done   chan struct{}
}

type Processor struct {
	sessions  *session.Manager
	placer    Placer
	publisher messaging.Publisher
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	placements map[string]*placement
	// session id -> processing placement id
	active map[string]string

	finished metric.Int64Counter
	duration metric.Float64Histogram
}

type Option func(*Processor)

func WithPublisher(pub messaging.Publisher) Option {
	return func(p *Processor) { p.publisher = pub }
}

// WithRetention sets how long finished placements stay queryable.
func WithRetention(d time.Duration) Option {
	return func(p *Processor) { p.retention = d }
}

func NewProcessor(sessions *session.Manager, placer Placer, logger *slog.Logger, opts ...Option) *Processor {
	ctx, stop := context.WithCancel(context.Background())
	p := &Processor{
		sessions:   sessions,
		placer:     placer,
		logger:     logger,
		retention:  10 * time.Minute,
		now:        time.Now,
		baseCtx:    ctx,
		stop:       stop,
		placements: make(map[string]*placement),
		active:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}

	meter := otel.Meter("storefront/checkout")
	var err error
	p.finished, err = meter.Int64Counter("storefront.checkout.placements",
		metric.WithDescription("Finished checkout placements by status."))
	if err != nil {
		otel.Handle(err)
	}
	p.duration, err = meter.Float64Histogram("storefront.checkout.duration",
		metric.WithDescription("Time from submission to a final placement status."),
		metric.WithUnit("s"))
	if err != nil {
		otel.Handle(err)
	}

	return p
}

// Submit starts placing an order for the session's current cart. It returns
// the placement in processing state without waiting for the result.
func (p *Processor) Submit(ctx context.Context, sessionID string, details domain.ShippingDetails) (domain.Placement, error) {
	now := p.now().UTC()
	runCtx, cancel := context.WithCancel(p.baseCtx)
	pl := &placement{
		Placement: domain.Placement{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Status:    domain.PlacementStatusProcessing,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	p.mu.Lock()
	if id, ok := p.active[sessionID]; ok {
		existing := p.placements[id].Placement
		p.mu.Unlock()
		cancel()
		return existing, ErrCheckoutInProgress
	}
	p.placements[pl.ID] = pl
	p.active[sessionID] = pl.ID
	p.mu.Unlock()

	s, err := p.sessions.Load(ctx, sessionID)
	if err == nil && s.CartEmpty() {
		err = ErrEmptyCart
	}
	if err != nil {
		p.discard(pl)
		return domain.Placement{}, err
	}

	req := domain.OrderRequest{
		SessionID: sessionID,
		Customer:  details,
		Items:     s.Cart,
		Totals:    pricing.Compute(s.Cart),
	}

	// Keep the request's trace as parent without inheriting its deadline.
	runCtx = trace.ContextWithSpanContext(runCtx, trace.SpanContextFromContext(ctx))

	p.wg.Add(1)
	go p.run(runCtx, pl, req)

	p.logger.Info("checkout submitted", "placement_id", pl.ID, "session_id", sessionID, "items", len(req.Items), "total", pricing.Format(req.Totals.Total))
	return pl.Placement, nil
}

func (p *Processor) discard(pl *placement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.placements, pl.ID)
	if p.active[pl.SessionID] == pl.ID {
		delete(p.active, pl.SessionID)
	}
	pl.cancel()
	close(pl.done)
}

func (p *Processor) run(ctx context.Context, pl *placement, req domain.OrderRequest) {
	defer p.wg.Done()
	defer close(pl.done)
	defer pl.cancel()

	ctx, span := tracer.Start(ctx, "checkout.place",
		trace.WithAttributes(
			attribute.String("checkout.placement_id", pl.ID),
			attribute.String("checkout.payment_method", string(req.Customer.PaymentMethod)),
			attribute.Int("checkout.items", len(req.Items)),
		),
	)
	defer span.End()

	start := p.now()
	orderID, err := p.placer.Place(ctx, req)

	var status domain.PlacementStatus
	switch {
	case err != nil && ctx.Err() != nil:
		status = domain.PlacementStatusCancelled
		p.finish(pl, func(r *domain.Placement) {
			r.Status = status
			r.Error = "checkout cancelled"
		})
		p.logger.Info("checkout cancelled", "placement_id", pl.ID, "session_id", req.SessionID)

	case err != nil:
		status = domain.PlacementStatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.finish(pl, func(r *domain.Placement) {
			r.Status = status
			r.Error = "order could not be placed"
		})
		p.logger.Error("checkout failed", "error", err, "placement_id", pl.ID, "session_id", req.SessionID)

	default:
		status = domain.PlacementStatusSucceeded
		span.SetAttributes(attribute.String("checkout.order_id", orderID))
		p.complete(ctx, pl, req, orderID)
	}

	p.duration.Record(ctx, p.now().Sub(start).Seconds(),
		metric.WithAttributes(attribute.String("status", string(status))))
}

// complete runs after the order exists, so it must not be cut short by a
// late cancel.
func (p *Processor) complete(ctx context.Context, pl *placement, req domain.OrderRequest, orderID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := p.sessions.Update(ctx, req.SessionID, func(s *session.Session) error {
		s.RemoveOrdered(req.Items)
		return nil
	}); err != nil {
		p.logger.Error("failed to clear cart after order", "error", err, "session_id", req.SessionID, "order_id", orderID)
	}

	if p.publisher != nil {
		event := domain.OrderPlacedEvent{
			Type:          domain.EventOrderPlaced,
			OrderID:       orderID,
			SessionID:     req.SessionID,
			Email:         req.Customer.Email,
			PaymentMethod: req.Customer.PaymentMethod,
			Items:         req.Items,
			Totals:        req.Totals,
			Timestamp:     p.now().UTC(),
		}
		if err := p.publisher.Publish(ctx, orderID, domain.EventOrderPlaced, event); err != nil {
			p.logger.Error("failed to publish order placed event", "error", err, "order_id", orderID)
		}
	}

	p.finish(pl, func(r *domain.Placement) {
		r.Status = domain.PlacementStatusSucceeded
		r.OrderID = orderID
		r.Redirect = navigation.OrderConfirmation(orderID)
		r.Message = SuccessMessage
	})
	p.logger.Info("order placed", "placement_id", pl.ID, "session_id", req.SessionID, "order_id", orderID)
}

func (p *Processor) finish(pl *placement, apply func(*domain.Placement)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	apply(&pl.Placement)
	pl.UpdatedAt = p.now().UTC()
	if p.active[pl.SessionID] == pl.ID {
		delete(p.active, pl.SessionID)
	}

	p.finished.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", string(pl.Status))))
}

// Get returns a placement owned by sessionID.
func (p *Processor) Get(sessionID, id string) (domain.Placement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl, ok := p.placements[id]
	if !ok || pl.SessionID != sessionID {
		return domain.Placement{}, ErrPlacementNotFound
	}
	return pl.Placement, nil
}

// Active returns the session's processing placement, if any.
func (p *Processor) Active(sessionID string) (domain.Placement, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.active[sessionID]
	if !ok {
		return domain.Placement{}, false
	}
	return p.placements[id].Placement, true
}

// Cancel stops a processing placement and waits for its final state. An
// order that completed concurrently stays succeeded.
func (p *Processor) Cancel(ctx context.Context, sessionID, id string) (domain.Placement, error) {
	p.mu.Lock()
	pl, ok := p.placements[id]
	if !ok || pl.SessionID != sessionID {
		p.mu.Unlock()
		return domain.Placement{}, ErrPlacementNotFound
	}
	if pl.Status.Terminal() {
		snapshot := pl.Placement
		p.mu.Unlock()
		return snapshot, ErrPlacementFinished
	}
	cancel, done := pl.cancel, pl.done
	p.mu.Unlock()

	cancel()
	return p.wait(ctx, sessionID, id, done)
}

// Wait blocks until the placement reaches a final state.
func (p *Processor) Wait(ctx context.Context, sessionID, id string) (domain.Placement, error) {
	p.mu.Lock()
	pl, ok := p.placements[id]
	if !ok || pl.SessionID != sessionID {
		p.mu.Unlock()
		return domain.Placement{}, ErrPlacementNotFound
	}
	done := pl.done
	p.mu.Unlock()

	return p.wait(ctx, sessionID, id, done)
}

func (p *Processor) wait(ctx context.Context, sessionID, id string, done <-chan struct{}) (domain.Placement, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return domain.Placement{}, ctx.Err()
	}
	return p.Get(sessionID, id)
}

// Sweep forgets finished placements older than the retention window.
func (p *Processor) Sweep() int {
	cutoff := p.now().UTC().Add(-p.retention)

	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for id, pl := range p.placements {
		if pl.Status.Terminal() && pl.UpdatedAt.Before(cutoff) {
			delete(p.placements, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (p *Processor) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.Sweep(); n > 0 {
				p.logger.Debug("swept finished placements", "count", n)
			}
		}
	}
}

// Shutdown cancels every processing placement and waits for them to settle.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.stop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
