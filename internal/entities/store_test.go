package entities

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_search_backend/internal/events"
	"crm_search_backend/platform/logger"
)

func TestStoreReplaceBumpsVersionAndPublishes(t *testing.T) {
	bus := events.NewInMemoryBus(nil)
	changed := make(chan events.PoolChanged, 4)
	bus.Subscribe(events.PoolChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		changed <- e.(events.PoolChanged)
		return nil
	}))

	store := NewStore(bus)
	if store.Version() != 0 {
		t.Fatalf("expected empty store at version 0, got %d", store.Version())
	}

	data := Data{Leads: []Record{{ID: "1", FirstName: "Jane"}}}
	snap, ok := store.Replace(context.Background(), "test", data)
	if !ok || snap.Version != 1 {
		t.Fatalf("expected first replace to produce version 1, got %d (%v)", snap.Version, ok)
	}

	if _, ok := store.Replace(context.Background(), "test", data); ok {
		t.Fatalf("identical content must not bump the version")
	}

	data.Clients = []Record{{ID: "2"}}
	snap, ok = store.Replace(context.Background(), "test", data)
	if !ok || snap.Version != 2 {
		t.Fatalf("expected version 2, got %d (%v)", snap.Version, ok)
	}
	bus.Wait()

	if len(changed) != 2 {
		t.Fatalf("expected 2 pool changed events, got %d", len(changed))
	}
	if got := len(store.AllClients()); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
}

func TestRecordHelpers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-14 * time.Minute)
	stale := now.Add(-15 * time.Minute)

	cases := []struct {
		name   string
		record Record
		title  string
		phones int
		online bool
	}{
		{"full name wins", Record{FullName: " Jane Q Doe ", FirstName: "Jane", LastName: "Doe", LastLoginAt: &recent}, "Jane Q Doe", 0, true},
		{"first and last", Record{FirstName: "Jane", LastName: "Doe", PhoneNumber: "1", AlternatePhoneNumber: "2", LastLoginAt: &stale}, "Jane Doe", 2, false},
		{"last only", Record{LastName: "Doe", SecondaryPhoneNumber: " "}, "Doe", 0, false},
	}

	for _, tc := range cases {
		if got := tc.record.DisplayName(); got != tc.title {
			t.Errorf("%s: DisplayName = %q, want %q", tc.name, got, tc.title)
		}
		if got := len(tc.record.Phones()); got != tc.phones {
			t.Errorf("%s: Phones = %d, want %d", tc.name, got, tc.phones)
		}
		if got := tc.record.IsOnline(now); got != tc.online {
			t.Errorf("%s: IsOnline = %v, want %v", tc.name, got, tc.online)
		}
	}
}

type stubLoader struct {
	data Data
	err  error
}

func (s stubLoader) Name() string                       { return "stub" }
func (s stubLoader) Load(context.Context) (Data, error) { return s.data, s.err }

func TestRefresherRefresh(t *testing.T) {
	store := NewStore(nil)
	r := NewRefresher(stubLoader{data: Data{Leads: []Record{{ID: "1"}}}}, store, logger.NewNop(), 0)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.Version() != 1 || len(store.AllLeads()) != 1 {
		t.Fatalf("expected pool loaded, got version %d", store.Version())
	}

	failing := NewRefresher(stubLoader{err: errors.New("db down")}, store, logger.NewNop(), 0)
	if err := failing.Refresh(context.Background()); err == nil {
		t.Fatal("expected loader error")
	}
	if store.Version() != 1 {
		t.Fatalf("failed refresh must keep the pool, got version %d", store.Version())
	}
}
