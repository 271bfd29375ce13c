package facets

import (
	"context"
	"sync"
)

// Fetcher returns normalized facet lists. The facets service implements it.
type Fetcher interface {
	Facets(ctx context.Context, req Request) (map[string][]string, error)
}

// State is what a filter panel renders while facets load.
type State struct {
	Facets    map[string][]string `json:"facets"`
	IsLoading bool                `json:"isLoading"`
	Error     string              `json:"error,omitempty"`
}

// Watcher keeps the facets of the latest request. Results of superseded
// loads are dropped.
type Watcher struct {
	fetch    Fetcher
	onChange func(State)

	mu    sync.Mutex
	gen   uint64
	state State
}

// NewWatcher creates an idle watcher. onChange may be nil.
func NewWatcher(fetch Fetcher, onChange func(State)) *Watcher {
	return &Watcher{
		fetch:    fetch,
		onChange: onChange,
		state:    State{Facets: map[string][]string{}},
	}
}

// Load starts fetching req and returns a channel closed once that load has
// settled, whether it was applied or superseded. Previous facets stay visible
// while loading.
func (w *Watcher) Load(ctx context.Context, req Request) <-chan struct{} {
	done := make(chan struct{})

	w.mu.Lock()
	w.gen++
	gen := w.gen
	if len(req.Fields) == 0 {
		w.state = State{Facets: map[string][]string{}}
		w.notifyLocked()
		w.mu.Unlock()
		close(done)
		return done
	}
	w.state.IsLoading = true
	w.notifyLocked()
	w.mu.Unlock()

	go func() {
		defer close(done)
		facets, err := w.fetch.Facets(ctx, req)

		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.gen {
			return
		}
		w.state.IsLoading = false
		if err != nil {
			w.state.Error = err.Error()
		} else {
			w.state.Facets = facets
			w.state.Error = ""
		}
		w.notifyLocked()
	}()
	return done
}

// State returns the current state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyLocked()
}

func (w *Watcher) copyLocked() State {
	facets := make(map[string][]string, len(w.state.Facets))
	for k, v := range w.state.Facets {
		facets[k] = append([]string(nil), v...)
	}
	return State{Facets: facets, IsLoading: w.state.IsLoading, Error: w.state.Error}
}

func (w *Watcher) notifyLocked() {
	if w.onChange != nil {
		w.onChange(w.copyLocked())
	}
}
