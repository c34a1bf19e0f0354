package store

import "context"

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Incidents
	CreateIncident(ctx context.Context, inc *Incident) error
	GetIncident(ctx context.Context, id string) (*Incident, error)
	UpdateIncident(ctx context.Context, id string, update IncidentUpdate) (*Incident, error)
	DeleteIncident(ctx context.Context, id string) error
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]*Incident, error)
	SearchIncidents(ctx context.Context, query string, limit int) ([]*Incident, error)

	// Dashboard ticker
	RecentLiveUpdates(ctx context.Context, limit int) ([]*LiveUpdate, error)

	// Audit log (append-only)
	AppendAudit(ctx context.Context, event *AuditEvent) error
	GetAudit(ctx context.Context, incidentID string, since int64) ([]*AuditEvent, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
