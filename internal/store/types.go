package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/incintel/incintel/pkg/schema"
)

// Incident is the persisted representation of one incident record.
type Incident struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Severity    schema.Severity       `json:"severity"`
	Status      schema.IncidentStatus `json:"status"`
	Location    string                `json:"location,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	DeletedAt   *time.Time            `json:"-"`
}

// Env flattens the incident into an expression environment for search
// filters.
func (i *Incident) Env() map[string]any {
	return map[string]any{
		"id":          i.ID,
		"title":       i.Title,
		"description": i.Description,
		"severity":    string(i.Severity),
		"status":      string(i.Status),
		"location":    i.Location,
	}
}

// IncidentUpdate is a partial update; nil fields are left untouched.
type IncidentUpdate struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Severity    *schema.Severity       `json:"severity,omitempty"`
	Status      *schema.IncidentStatus `json:"status,omitempty"`
	Location    *string                `json:"location,omitempty"`
}

// IncidentFilter narrows ListIncidents results. Zero values mean no
// constraint.
type IncidentFilter struct {
	Status   schema.IncidentStatus
	Severity schema.Severity
	Location string
	Limit    int
}

// Live update types surfaced on the dashboard ticker.
const (
	LiveUpdateNewIncident  = "new_incident"
	LiveUpdateStatusChange = "status_change"
	LiveUpdateResolved     = "resolved"
)

// LiveUpdate is one dashboard ticker entry.
type LiveUpdate struct {
	ID         int64     `json:"id"`
	IncidentID string    `json:"incident_id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditEvent is an immutable entry in the per-incident audit log.
type AuditEvent struct {
	ID         int64           `json:"id"`
	IncidentID string          `json:"incident_id"`
	Type       string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Sequence   int64           `json:"sequence"`
}

// NewIncidentID builds the canonical time-derived identifier,
// e.g. INC-20260812-141503.
func NewIncidentID(t time.Time) string {
	return fmt.Sprintf("INC-%s", t.UTC().Format("20060102-150405"))
}
