package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
	"github.com/ttracx/deepboreai/internal/feed"
	"github.com/ttracx/deepboreai/internal/history"
	"github.com/ttracx/deepboreai/internal/models"
)

// FeedRunner is the live feed as seen by the service.
type FeedRunner interface {
	Run(ctx context.Context, h feed.Handler) error
}

// Service ties the feed, the fetcher and the state together: every live
// reading replaces the current reading and triggers one history fetch.
type Service struct {
	state    *State
	feed     FeedRunner
	fetcher  *history.Fetcher
	schedule string
	logger   *log.Logger

	mu      sync.Mutex
	baseCtx context.Context
	fetches sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRefreshSchedule adds a cron-driven history refresh on top of the
// per-reading refresh.
func WithRefreshSchedule(expr string) ServiceOption {
	return func(s *Service) { s.schedule = strings.TrimSpace(expr) }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a service over state.
func NewService(state *State, f FeedRunner, fetcher *history.Fetcher, opts ...ServiceOption) *Service {
	s := &Service{
		state:   state,
		feed:    f,
		fetcher: fetcher,
		logger:  log.New("dashboard"),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state the service writes to.
func (s *Service) State() *State {
	return s.state
}

// Run fetches history once, starts the optional refresh schedule and then
// listens to the live feed until it ends or ctx is cancelled. The schedule
// keeps running until ctx is cancelled even if the feed drops.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	if s.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.schedule, func() { s.Refresh(ctx) }); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
		}
		c.Start()
		s.logger.Infof("history refresh scheduled: %s", s.schedule)
		s.fetches.Add(1)
		go func() {
			defer s.fetches.Done()
			<-ctx.Done()
			<-c.Stop().Done()
		}()
	}

	s.trigger()

	err := s.feed.Run(ctx, s)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Errorf("live feed ended: %v", err)
		return err
	}
	return nil
}

// Wait blocks until every triggered fetch has finished and, once ctx is
// done, the refresh schedule has stopped.
func (s *Service) Wait() {
	s.fetches.Wait()
}

// OnReading implements feed.Handler.
func (s *Service) OnReading(r models.Reading) {
	s.state.SetReading(r)
	s.trigger()
}

// OnStatus implements feed.Handler.
func (s *Service) OnStatus(state models.ConnectionState, err error) {
	s.state.SetConnection(state, err)
}

// Refresh performs one sequenced history fetch and applies it unless a newer
// fetch already landed.
func (s *Service) Refresh(ctx context.Context) error {
	res, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.Warnf("history fetch #%d failed: %v", res.Token, err)
		s.state.RecordFetchError(res.Token, err)
		return err
	}
	if !s.state.ApplyHistory(res.Token, res.Entries) {
		s.logger.Debugf("dropping stale history response #%d", res.Token)
	}
	return nil
}

// trigger starts an uncoordinated background fetch, ordered only by token.
func (s *Service) trigger() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		s.Refresh(ctx)
	}()
}
