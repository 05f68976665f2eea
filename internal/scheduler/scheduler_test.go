package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/logging"
)

type stubRefresher struct {
	fn      func(ctx context.Context) (*dashboard.Overview, error)
	caching bool
}

func (s stubRefresher) RefreshOverview(ctx context.Context) (*dashboard.Overview, error) {
	return s.fn(ctx)
}

func (s stubRefresher) Caching() bool { return s.caching }

func TestStartRefreshesImmediately(t *testing.T) {
	calls := make(chan struct{}, 4)
	r := stubRefresher{caching: true, fn: func(context.Context) (*dashboard.Overview, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return &dashboard.Overview{}, nil
	}}

	s, err := Start(context.Background(), r, time.Hour, nil, logging.Discard())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Shutdown()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate refresh")
	}
}

func TestRefreshFailureIsContained(t *testing.T) {
	done := make(chan struct{})
	r := stubRefresher{caching: true, fn: func(context.Context) (*dashboard.Overview, error) {
		defer close(done)
		return nil, errors.New("store unavailable")
	}}
	s := &Scheduler{logger: logging.Discard()}
	s.refresh(context.Background(), r, time.Second)
	<-done
}

func TestStartRejectsZeroInterval(t *testing.T) {
	if _, err := Start(context.Background(), stubRefresher{}, 0, nil, logging.Discard()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestStartIdleWithoutCache(t *testing.T) {
	calls := make(chan struct{}, 1)
	r := stubRefresher{fn: func(context.Context) (*dashboard.Overview, error) {
		calls <- struct{}{}
		return &dashboard.Overview{}, nil
	}}

	s, err := Start(context.Background(), r, 10*time.Millisecond, nil, logging.Discard())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-calls:
		t.Fatal("refresh ran without a cache")
	case <-time.After(100 * time.Millisecond):
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
