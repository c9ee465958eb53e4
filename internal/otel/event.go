// Package otel records structured catalog events.
//
// Events are typed structs written as JSONL by an asynchronous Logger. A
// RingBuffer keeps the most recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	// Catalog (product list and mutations)
	KindRefreshStart    EventKind = "catalog.refresh_start"
	KindRefreshComplete EventKind = "catalog.refresh"
	KindRefreshError    EventKind = "catalog.refresh_error"
	KindMutate          EventKind = "catalog.mutate"
	KindMutateError     EventKind = "catalog.mutate_error"
	KindDeleteRequest   EventKind = "catalog.delete_request"

	// AI search
	KindSearchDebounce EventKind = "search.debounce"
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"
	KindSearchCancel   EventKind = "search.cancel"
	KindSearchStale    EventKind = "search.stale"
	KindSearchClear    EventKind = "search.clear"

	// Dev backend
	KindServeRequest EventKind = "serve.request"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Update-loop tracing (CATALOG_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one observability record. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "coord", "search", "ui", "gateway", "devserver", "main"
	SessionID string         `json:"session_id,omitempty"`
	Seq       uint64         `json:"seq,omitempty"` // AI search sequence number
	ProductID int64          `json:"product_id,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
