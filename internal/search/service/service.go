// Package service owns the search sessions of connected users and the
// one-shot search used by API clients that do not need debouncing.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/events"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/internal/search/transport"
	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgSessionNotFound = "search session not found"
	subscriberBuffer   = 8
	minSweepInterval   = 10 * time.Second
)

type Service struct {
	pool   engine.PoolReader
	engine *engine.Engine
	cfg    config.SearchConfig
	log    *logger.Logger
	sched  engine.Scheduler
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type entry struct {
	owner   uuid.UUID
	session *engine.Session

	mu          sync.Mutex
	lastSeen    time.Time
	closed      bool
	subscribers map[chan engine.State]struct{}
}

func New(pool engine.PoolReader, eng *engine.Engine, cfg config.SearchConfig, log *logger.Logger) *Service {
	return &Service{
		pool:     pool,
		engine:   eng,
		cfg:      cfg,
		log:      log,
		sched:    engine.SystemScheduler,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// SetScheduler replaces the timer source of sessions created afterwards.
func (s *Service) SetScheduler(sched engine.Scheduler) {
	s.sched = sched
}

// SetClock replaces the clock used for idle tracking.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GlobalSearch ranks the current pool once, without a session.
func (s *Service) GlobalSearch(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.GetSearchMaxResults()
	}
	query := sanitize.Query(req.Query)
	results := s.engine.Search(s.pool.Snapshot(), query, limit)
	return &transport.SearchResponse{
		Query: query,
		Items: transport.NewItems(query, results),
		Total: len(results),
	}, nil
}

// CreateSession opens an idle session owned by userID.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID) transport.SessionResponse {
	id := uuid.New()
	e := &entry{
		owner:       userID,
		lastSeen:    s.now(),
		subscribers: make(map[chan engine.State]struct{}),
	}
	log := s.log.WithContext(ctx)
	e.session = engine.NewSession(s.pool, s.engine, engine.Options{
		ID:         id.String(),
		MaxResults: s.cfg.GetSearchMaxResults(),
		Debounce:   s.cfg.GetSearchDebounce(),
		FlagDelay:  s.cfg.GetSearchFlagDelay(),
		Scheduler:  s.sched,
		OnChange:   e.broadcast,
		OnNavigate: func(kind entities.Kind, recordID string) {
			log.Info("search_result_selected",
				slog.String("session_id", id.String()),
				slog.String("type", string(kind)),
				slog.String("record_id", recordID),
			)
		},
		Logger: s.log,
	})

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()

	log.SearchSession("created", id.String())
	return transport.NewSessionResponse(id.String(), e.session.State())
}

func (s *Service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (transport.SessionResponse, error) {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	return transport.NewSessionResponse(sessionID.String(), e.session.State()), nil
}

// SetQuery feeds new input to a session. The response reflects the state right
// after the input: cleared, served from cache, or still pending.
func (s *Service) SetQuery(ctx context.Context, userID, sessionID uuid.UUID, query string) (transport.SessionResponse, error) {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	e.session.SetQuery(sanitize.Query(query))
	return transport.NewSessionResponse(sessionID.String(), e.session.State()), nil
}

func (s *Service) ClearQuery(ctx context.Context, userID, sessionID uuid.UUID) (transport.SessionResponse, error) {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	e.session.Clear()
	return transport.NewSessionResponse(sessionID.String(), e.session.State()), nil
}

func (s *Service) Select(ctx context.Context, userID, sessionID uuid.UUID, req transport.SelectRequest) (transport.SelectResponse, error) {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return transport.SelectResponse{}, err
	}
	route := e.session.Select(engine.Result{ID: req.ID, Type: req.Type})
	return transport.SelectResponse{Route: route}, nil
}

func (s *Service) CloseSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return err
	}
	s.remove(sessionID, e)
	s.log.WithContext(ctx).SearchSession("closed", sessionID.String())
	return nil
}

// Subscribe streams every state change of a session. The channel closes when
// the session does; cancel detaches early.
func (s *Service) Subscribe(ctx context.Context, userID, sessionID uuid.UUID) (<-chan engine.State, func(), error) {
	e, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan engine.State, subscriberBuffer)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, nil, apperr.NotFound(msgSessionNotFound)
	}
	e.subscribers[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Handle invalidates every session cache when the pool changes.
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.PoolChanged)
	if !ok {
		return nil
	}

	s.mu.Lock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.session.InvalidateCache()
	}
	s.log.Debug("search_caches_invalidated",
		slog.Uint64("version", changed.Version),
		slog.Int("sessions", len(entries)),
	)
	return nil
}

// SweepIdle closes sessions not touched within the configured idle TTL and
// reports how many were closed.
func (s *Service) SweepIdle() int {
	ttl := s.cfg.GetSearchSessionIdleTTL()
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var idle []uuid.UUID
	for id, e := range s.sessions {
		e.mu.Lock()
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range idle {
		s.mu.Lock()
		e := s.sessions[id]
		s.mu.Unlock()
		if e != nil {
			s.remove(id, e)
		}
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done, then closes the rest.
func (s *Service) Run(ctx context.Context) {
	interval := max(s.cfg.GetSearchSessionIdleTTL()/2, minSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			if n := s.SweepIdle(); n > 0 {
				s.log.Info("search_sessions_expired", slog.Int("count", n))
			}
		}
	}
}

// ActiveSessions returns the number of open sessions.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) lookup(userID, sessionID uuid.UUID) (*entry, error) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok || e.owner != userID {
		return nil, apperr.NotFound(msgSessionNotFound)
	}

	e.mu.Lock()
	e.lastSeen = s.now()
	e.mu.Unlock()
	return e, nil
}

func (s *Service) remove(id uuid.UUID, e *entry) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	e.session.Close()
	e.close()
}

func (s *Service) closeAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*entry)
	s.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
		e.close()
	}
}

// broadcast hands state to every subscriber. A slow subscriber loses its
// oldest pending state, never the newest.
func (e *entry) broadcast(state engine.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subscribers {
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (e *entry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for ch := range e.subscribers {
		close(ch)
	}
	clear(e.subscribers)
}

var _ events.Handler = (*Service)(nil)
