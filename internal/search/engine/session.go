package engine

import (
	"sync"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/search/textmatch"
	"crm_search_backend/platform/logger"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before a
	// search runs.
	DefaultDebounce = 220 * time.Millisecond
	// DefaultFlagDelay is how long a pending search waits before the
	// searching indicator is raised.
	DefaultFlagDelay = 100 * time.Millisecond

	cacheLimit = 50
	cacheEvict = 25
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. It lets tests drive sessions with a
// manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the runtime timers.
var SystemScheduler Scheduler = systemScheduler{}

// PoolReader is the read side of the entity store.
type PoolReader interface {
	Snapshot() entities.Snapshot
}

// NavigateFunc is invoked when a result is selected.
type NavigateFunc func(kind entities.Kind, id string)

// ProfileRoute is where a selected result leads.
func ProfileRoute(id string) string {
	return "/app/profile/" + id
}

// State is what a search box renders.
type State struct {
	Query       string   `json:"query"`
	Results     []Result `json:"results"`
	IsSearching bool     `json:"isSearching"`
}

// Options tune a Session. Zero values fall back to the defaults.
type Options struct {
	ID         string
	MaxResults int
	Debounce   time.Duration
	FlagDelay  time.Duration
	Scheduler  Scheduler
	OnNavigate NavigateFunc
	// OnChange receives every new state. It runs while the session lock is
	// held, so it must not call back into the session.
	OnChange func(State)
	Logger   *logger.Logger
}

// Session is one user's search box: debounced input, a bounded per-query
// cache, and a run id that discards results of superseded searches.
type Session struct {
	mu sync.Mutex

	pool     PoolReader
	searcher Searcher
	opts     Options

	query       string
	results     []Result
	isSearching bool

	cache        *queryCache
	cacheVersion uint64

	runID       uint64
	pending     bool
	flagTimer   Timer
	searchTimer Timer
	closed      bool
}

// NewSession creates an idle session over pool.
func NewSession(pool PoolReader, searcher Searcher, opts Options) *Session {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.FlagDelay <= 0 {
		opts.FlagDelay = DefaultFlagDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Session{
		pool:     pool,
		searcher: searcher,
		opts:     opts,
		results:  []Result{},
		cache:    newQueryCache(cacheLimit, cacheEvict),
	}
}

// ID returns the session identifier given at construction.
func (s *Session) ID() string {
	return s.opts.ID
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SetQuery records new input. Blank input clears results at once, a cached
// query is served at once, anything else is searched after the debounce.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.query = query
	s.refreshLocked()
}

// Clear empties the query and results and cancels pending work.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelLocked()
	s.query = ""
	s.results = []Result{}
	s.isSearching = false
	s.notifyLocked()
}

// Select navigates to a result's profile and returns its route.
func (s *Session) Select(result Result) string {
	if nav := s.opts.OnNavigate; nav != nil {
		nav(result.Type, result.ID)
	}
	return ProfileRoute(result.ID)
}

// InvalidateCache drops every cached result list and reruns the current query.
func (s *Session) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cache.clear()
	s.cacheVersion = s.pool.Snapshot().Version
	s.refreshLocked()
}

// Close cancels pending work. A closed session ignores further input.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}

func (s *Session) refreshLocked() {
	s.cancelLocked()
	runID := s.runID

	key := textmatch.NormalizeForCompare(s.query)
	if key == "" {
		s.results = []Result{}
		s.isSearching = false
		s.notifyLocked()
		return
	}

	s.syncCacheVersionLocked(s.pool.Snapshot().Version)
	if cached, ok := s.cache.get(key); ok {
		s.results = truncate(cached, s.opts.MaxResults)
		s.isSearching = false
		s.notifyLocked()
		return
	}

	raw := s.query
	s.pending = true
	s.flagTimer = s.opts.Scheduler.AfterFunc(s.opts.FlagDelay, func() { s.raiseFlag(runID) })
	s.searchTimer = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() { s.run(runID, raw, key) })
}

// cancelLocked stops both timers and invalidates any in-flight run.
func (s *Session) cancelLocked() {
	if s.flagTimer != nil {
		s.flagTimer.Stop()
		s.flagTimer = nil
	}
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
	s.pending = false
	s.runID++
}

func (s *Session) raiseFlag(runID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || runID != s.runID || !s.pending || s.isSearching {
		return
	}
	s.isSearching = true
	s.notifyLocked()
}

func (s *Session) run(runID uint64, raw, key string) {
	if !s.current(runID) {
		return
	}

	snap := s.pool.Snapshot()
	results := s.searcher.Search(snap, raw, s.opts.MaxResults)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || runID != s.runID {
		s.opts.Logger.StaleSearchDiscarded(s.opts.ID, runID, s.runID)
		return
	}
	s.syncCacheVersionLocked(snap.Version)
	s.cache.put(key, results)

	if s.flagTimer != nil {
		s.flagTimer.Stop()
		s.flagTimer = nil
	}
	s.searchTimer = nil
	s.pending = false
	s.results = results
	s.isSearching = false
	s.notifyLocked()
}

func (s *Session) current(runID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || runID != s.runID {
		s.opts.Logger.StaleSearchDiscarded(s.opts.ID, runID, s.runID)
		return false
	}
	return true
}

// syncCacheVersionLocked drops the cache when the pool moved on.
func (s *Session) syncCacheVersionLocked(version uint64) {
	if version != s.cacheVersion {
		s.cache.clear()
		s.cacheVersion = version
	}
}

func (s *Session) stateLocked() State {
	return State{
		Query:       s.query,
		Results:     append([]Result(nil), s.results...),
		IsSearching: s.isSearching,
	}
}

func (s *Session) notifyLocked() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.stateLocked())
	}
}

func truncate(results []Result, n int) []Result {
	if len(results) > n {
		results = results[:n]
	}
	return append([]Result(nil), results...)
}

// queryCache maps normalized queries to results. Once it holds more than
// limit entries, the first evict keys by insertion order are dropped.
type queryCache struct {
	limit   int
	evict   int
	order   []string
	entries map[string][]Result
}

func newQueryCache(limit, evict int) *queryCache {
	return &queryCache{limit: limit, evict: evict, entries: make(map[string][]Result)}
}

func (c *queryCache) get(key string) ([]Result, bool) {
	r, ok := c.entries[key]
	return r, ok
}

func (c *queryCache) put(key string, results []Result) {
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = results
	if len(c.order) <= c.limit {
		return
	}
	for _, old := range c.order[:c.evict] {
		delete(c.entries, old)
	}
	c.order = append([]string(nil), c.order[c.evict:]...)
}

func (c *queryCache) clear() {
	c.order = nil
	clear(c.entries)
}

func (c *queryCache) len() int {
	return len(c.order)
}
