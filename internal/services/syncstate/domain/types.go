// Package domain holds the durable sync-state shapes shared across services
package domain

import (
	"strconv"
	"time"
)

// Object names inside the state bucket
const (
	ManifestObject = "culture-amp/state.json"
	MappingObject  = "timeoff_mapping.json"
	MetricsObject  = "sync_metrics.json"
)

// ManifestRow is one exported employee row with its change-detection hash
type ManifestRow struct {
	Hash     string   `json:"content_hash"`
	PersonID string   `json:"hris_person_id"`
	Row      []string `json:"last_row"`
}

// Manifest records the last successfully uploaded snapshot keyed by Employee Id.
// Delta exports diff fresh rows against it and rewrite it after upload
type Manifest struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Rows        map[string]ManifestRow `json:"rows"`
}

// NewManifest returns an empty manifest
func NewManifest() *Manifest { return &Manifest{Rows: map[string]ManifestRow{}} }

// MappingEntry links one HRIS time-off event to the planner record created for it
type MappingEntry struct {
	PlannerID   int64     `json:"planner_timeoff_id"`
	Category    string    `json:"category"`
	PersonEmail string    `json:"owner_email"`
	CreatedAt   time.Time `json:"created_at_iso"`
}

// TimeoffMapping is the bidirectional HRIS<->planner time-off index.
// Forward is keyed by HRIS event id; Reverse by planner record id
type TimeoffMapping struct {
	Forward map[string]MappingEntry `json:"ch_to_planner"`
	Reverse map[string]string       `json:"planner_to_ch"`
}

// NewTimeoffMapping returns an empty mapping
func NewTimeoffMapping() *TimeoffMapping {
	return &TimeoffMapping{Forward: map[string]MappingEntry{}, Reverse: map[string]string{}}
}

// Get returns the forward entry for an HRIS event id
func (m *TimeoffMapping) Get(hrisID string) (MappingEntry, bool) {
	e, ok := m.Forward[hrisID]
	return e, ok
}

// Put records both directions of a link
func (m *TimeoffMapping) Put(hrisID string, e MappingEntry) {
	m.Forward[hrisID] = e
	m.Reverse[strconv.FormatInt(e.PlannerID, 10)] = hrisID
}

// Delete removes both directions of a link
func (m *TimeoffMapping) Delete(hrisID string) {
	if e, ok := m.Forward[hrisID]; ok {
		delete(m.Reverse, strconv.FormatInt(e.PlannerID, 10))
	}
	delete(m.Forward, hrisID)
}

// SyncError is one recorded failure, newest first in Metrics.LastErrors
type SyncError struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// Metrics aggregates per-kind counters and the most recent failures
type Metrics struct {
	LastSync   map[string]time.Time `json:"last_sync"`
	Counters   map[string]int64     `json:"counters"`
	LastErrors []SyncError          `json:"last_errors"`
}

// NewMetrics returns an empty metrics document
func NewMetrics() *Metrics {
	return &Metrics{LastSync: map[string]time.Time{}, Counters: map[string]int64{}}
}

// MaxLastErrors bounds the error ring kept in the metrics document
const MaxLastErrors = 100

// MappingTTL is how long a forward mapping entry survives without refresh
const MappingTTL = 180 * 24 * time.Hour
