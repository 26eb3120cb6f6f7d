package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"kudakan-telegram/models"
)

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusInProgress, models.OrderStatusDone, true},
		{models.OrderStatusDone, models.OrderStatusInProgress, false},
		{models.OrderStatusDone, models.OrderStatusDone, false},
		{models.OrderStatusInProgress, models.OrderStatusInProgress, false},
		{"", models.OrderStatusDone, false},
		{models.OrderStatusInProgress, "", false},
	}
	for _, tt := range tests {
		got := ValidStatusTransition(tt.from, tt.to)
		if got != tt.want {
			t.Errorf("ValidStatusTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

type fakeLister struct {
	student []models.Order
	kantin  []models.Order
	details map[int64][]models.OrderLine
	failID  int64
}

func (f *fakeLister) OrdersByStudent(ctx context.Context, token string, id int64) ([]models.Order, error) {
	return f.student, nil
}

func (f *fakeLister) OrdersByKantin(ctx context.Context, token string, id int64) ([]models.Order, error) {
	return f.kantin, nil
}

func (f *fakeLister) OrderWithDetails(ctx context.Context, token string, id int64) (models.Order, []models.OrderLine, error) {
	if id == f.failID {
		return models.Order{}, nil, errors.New("detail fetch failed")
	}
	for _, o := range append(f.student, f.kantin...) {
		if o.ID == id {
			return o, f.details[id], nil
		}
	}
	return models.Order{}, nil, errors.New("not found")
}

func TestFetchOrderSummaries(t *testing.T) {
	lister := &fakeLister{
		student: []models.Order{
			{ID: 1, Status: models.OrderStatusInProgress},
			{ID: 2, Status: models.OrderStatusDone},
		},
		details: map[int64][]models.OrderLine{
			1: {{MenuItemID: 5, Name: "Nasi Goreng", Quantity: 2, Subtotal: 30000}},
			2: {{MenuItemID: 6, Name: "Es Teh", Quantity: 1, Subtotal: 5000}},
		},
	}
	s := &models.Session{UserID: 7, Role: models.RoleStudent, Token: "tok"}
	summaries, err := FetchOrderSummaries(context.Background(), lister, s)
	if err != nil {
		t.Fatalf("FetchOrderSummaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].Total != 30000 || summaries[1].Total != 5000 {
		t.Errorf("totals = %d/%d, want 30000/5000", summaries[0].Total, summaries[1].Total)
	}
	if len(summaries[0].Lines) != 1 {
		t.Errorf("order 1 lines = %d, want 1", len(summaries[0].Lines))
	}
}

func TestFetchOrderSummariesDetailFailureTolerated(t *testing.T) {
	lister := &fakeLister{
		kantin: []models.Order{{ID: 3, Status: models.OrderStatusInProgress}},
		failID: 3,
	}
	s := &models.Session{UserID: 9, Role: models.RoleKantin, Token: "tok"}
	summaries, err := FetchOrderSummaries(context.Background(), lister, s)
	if err != nil {
		t.Fatalf("FetchOrderSummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("order with failing detail must still be listed, got %d", len(summaries))
	}
	if summaries[0].Order.ID != 3 || summaries[0].Total != 0 {
		t.Errorf("summary = %+v, want order 3 with zero total", summaries[0])
	}
}

func TestPollerRunsAndStops(t *testing.T) {
	var runs int32
	p := StartPoller(context.Background(), 10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&runs) < 2 {
		select {
		case <-deadline:
			t.Fatal("poller never ticked twice")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.Stop()
	after := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != after {
		t.Errorf("poller kept running after Stop: %d -> %d", after, got)
	}

	// Stop is idempotent.
	p.Stop()
}

func TestPollerRequestStopFromCallback(t *testing.T) {
	var runs int32
	var ref atomic.Pointer[Poller]
	p := StartPoller(context.Background(), 5*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		// The callback shutting down its own poller, as the orders screen
		// does when the session is gone mid-poll.
		if q := ref.Load(); q != nil {
			q.RequestStop()
		}
	})
	ref.Store(p)

	// Stop from outside must return even though the cancellation came from
	// within the callback.
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after RequestStop from inside the callback")
	}

	after := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != after {
		t.Errorf("poller kept running after RequestStop: %d -> %d", after, got)
	}
}
