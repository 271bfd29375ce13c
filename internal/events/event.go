// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crm_search_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Entities Domain Events
// =============================================================================

// PoolChanged is published when the in-memory lead/client pool or the custom
// document definitions were replaced. Search sessions drop their caches on it.
type PoolChanged struct {
	BaseEvent
	Version   uint64 `json:"version"`
	Source    string `json:"source"`
	Leads     int    `json:"leads"`
	Clients   int    `json:"clients"`
	Documents int    `json:"documents"`
}

func (e PoolChanged) EventName() string { return "entities.pool.changed" }

// SnapshotExported is published by the scheduler after a pool snapshot was
// written to object storage.
type SnapshotExported struct {
	BaseEvent
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"objectKey"`
	SizeBytes int64  `json:"sizeBytes"`
	Leads     int    `json:"leads"`
	Clients   int    `json:"clients"`
}

func (e SnapshotExported) EventName() string { return "entities.snapshot.exported" }
