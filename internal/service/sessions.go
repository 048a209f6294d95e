package service

import (
	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/engine"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService owns one conversation engine per widget session. Sessions
// live in a TTL cache; closing the widget does not destroy a session (the
// interview resumes on reopen), expiry does. Evicted engines have their
// pending timers cancelled so nothing fires after the session is gone.
type SessionService struct {
	script    domain.Script
	recorder  port.Recorder
	sched     engine.Scheduler
	engineCfg engine.Config
	sessions  port.Cache[*engine.Engine]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSessionService creates the session registry.
func NewSessionService(
	script domain.Script,
	recorder port.Recorder,
	sched engine.Scheduler,
	engineCfg engine.Config,
	sessions port.Cache[*engine.Engine],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SessionService {
	s := &SessionService{
		script:    script,
		recorder:  recorder,
		sched:     sched,
		engineCfg: engineCfg,
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
	}
	sessions.OnEvict(func(id string, e *engine.Engine) {
		e.Shutdown()
		metrics.SessionClosed()
		logger.Debug("session evicted", zap.String("session_id", id))
	})
	return s
}

// Create starts a new session with the widget already open and returns its
// id alongside the initial state.
func (s *SessionService) Create() (string, domain.EngineState) {
	id := uuid.NewString()
	cfg := s.engineCfg
	cfg.OnMessage = func(origin domain.Origin) {
		s.metrics.IncrMessage(string(origin))
	}
	e := engine.New(s.script, s.recorder, s.sched, cfg, s.logger.With(zap.String("session_id", id)))
	s.sessions.Set(id, e)
	s.metrics.SessionOpened()

	st := e.Open()
	s.logger.Info("session created", zap.String("session_id", id))
	return id, st
}

// Get returns the engine state for a session.
func (s *SessionService) Get(id string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.Snapshot(), nil
}

// Submit forwards an answer to the session's engine.
func (s *SessionService) Submit(id, text string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.SubmitAnswer(text), nil
}

// Reset restarts the session's interview from the greeting.
func (s *SessionService) Reset(id string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.Reset(), nil
}

// Retry re-attempts a failed transcript submission.
func (s *SessionService) Retry(id string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.Retry(), nil
}

// Open reopens the widget for a session.
func (s *SessionService) Open(id string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.Open(), nil
}

// Close hides the widget. The session stays alive until its TTL expires.
func (s *SessionService) Close(id string) (domain.EngineState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.EngineState{}, err
	}
	return e.Close(), nil
}

// lookup fetches the engine and refreshes the session TTL: any activity
// keeps the session alive.
func (s *SessionService) lookup(id string) (*engine.Engine, error) {
	e, ok := s.sessions.Get(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	s.sessions.Touch(id)
	return e, nil
}
