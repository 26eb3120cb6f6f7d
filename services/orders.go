package services

import (
	"context"
	"sync"
	"time"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
)

// ValidStatusTransition: the kantin may move an order from in progress to
// done, one-directional and terminal.
func ValidStatusTransition(from, to string) bool {
	return from == models.OrderStatusInProgress && to == models.OrderStatusDone
}

// OrderSummary is one order with its resolved lines and computed total.
type OrderSummary struct {
	Order models.Order
	Lines []models.OrderLine
	Total int64
}

// OrderLister is the slice of the gateway order tracking needs.
type OrderLister interface {
	OrdersByStudent(ctx context.Context, token string, studentID int64) ([]models.Order, error)
	OrdersByKantin(ctx context.Context, token string, kantinID int64) ([]models.Order, error)
	OrderWithDetails(ctx context.Context, token string, id int64) (models.Order, []models.OrderLine, error)
}

// FetchOrderSummaries lists orders for the session's role, then fetches each
// order's detail to compute the displayed total. Detail fetches are
// sequenced after the list; an order whose detail fetch fails is still shown
// with whatever the list gave us.
func FetchOrderSummaries(ctx context.Context, lister OrderLister, s *models.Session) ([]OrderSummary, error) {
	var (
		orders []models.Order
		err    error
	)
	if s.Role == models.RoleKantin {
		orders, err = lister.OrdersByKantin(ctx, s.Token, s.UserID)
	} else {
		orders, err = lister.OrdersByStudent(ctx, s.Token, s.UserID)
	}
	if err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summary := OrderSummary{Order: o}
		if detailed, lines, derr := lister.OrderWithDetails(ctx, s.Token, o.ID); derr == nil {
			summary.Order = detailed
			summary.Lines = lines
			for _, l := range lines {
				summary.Total += l.Subtotal
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

var _ OrderLister = (*api.Client)(nil)

// Poller re-runs a fetch on a fixed interval while a screen is active. Stop
// is idempotent and tied to screen lifetime: navigation away, logout or
// teardown must stop the poller so no requests leak.
type Poller struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// StartPoller runs fn every interval until Stop (or ctx cancellation). The
// first run happens after one interval, not immediately; callers render the
// initial state themselves.
func StartPoller(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) *Poller {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return p
}

// Stop cancels the poll loop and waits for it to exit. Must not be called
// from inside the poll callback: the wait can only finish once the callback
// returns. The callback uses RequestStop instead.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		<-p.done
	})
}

// RequestStop cancels the poll loop without waiting for it to exit. This is
// the only safe way to stop the poller from inside its own callback; a later
// Stop still works and returns as soon as the loop has wound down.
func (p *Poller) RequestStop() {
	p.cancel()
}
