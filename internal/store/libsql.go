package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/incintel/incintel/pkg/schema"
)

const defaultSearchLimit = 50

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage (e.g. audit log).
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Incidents ---

// CreateIncident inserts a new incident and its ticker entry in one
// transaction. An empty ID is filled in from the creation time; because IDs
// have second granularity, the insert retries on collision with the second
// bumped forward.
func (s *LibSQLStore) CreateIncident(ctx context.Context, inc *Incident) error {
	now := time.Now().UTC()
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = now
	}
	inc.UpdatedAt = inc.CreatedAt
	if inc.Severity == "" {
		inc.Severity = schema.SeverityMedium
	}
	if inc.Status == "" {
		inc.Status = schema.IncidentOpen
	}

	generated := inc.ID == ""
	idTime := inc.CreatedAt

	for attempt := 0; ; attempt++ {
		if generated {
			inc.ID = NewIncidentID(idTime)
		}
		err := s.insertIncident(ctx, inc)
		if err == nil {
			return nil
		}
		if generated && attempt < 3 && isUniqueViolation(err) {
			idTime = idTime.Add(time.Second)
			continue
		}
		if isUniqueViolation(err) {
			return schema.NewErrorf(schema.ErrCodeConflict, "incident %q already exists", inc.ID).WithCause(err)
		}
		return schema.NewErrorf(schema.ErrCodeStore, "create incident: %s", err.Error()).WithCause(err)
	}
}

func (s *LibSQLStore) insertIncident(ctx context.Context, inc *Incident) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO incidents (id, title, description, severity, status, location, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.Title, inc.Description, string(inc.Severity), string(inc.Status),
		inc.Location, inc.CreatedAt, inc.UpdatedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO live_updates (incident_id, update_type, message, timestamp) VALUES (?, ?, ?, ?)`,
		inc.ID, LiveUpdateNewIncident,
		fmt.Sprintf("New incident reported: %s", inc.Title), inc.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert live update: %w", err)
	}

	return tx.Commit()
}

func (s *LibSQLStore) GetIncident(ctx context.Context, id string) (*Incident, error) {
	inc := &Incident{}
	var severity, status string
	var resolvedAt, deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, severity, status, location, created_at, updated_at, resolved_at, deleted_at
		 FROM incidents WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&inc.ID, &inc.Title, &inc.Description, &severity, &status, &inc.Location,
		&inc.CreatedAt, &inc.UpdatedAt, &resolvedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("incident", id)
	}
	if err != nil {
		return nil, err
	}
	inc.Severity = schema.Severity(severity)
	inc.Status = schema.IncidentStatus(status)
	if resolvedAt.Valid {
		inc.ResolvedAt = &resolvedAt.Time
	}
	if deletedAt.Valid {
		inc.DeletedAt = &deletedAt.Time
	}
	return inc, nil
}

// UpdateIncident applies a partial update and records the matching ticker
// entry when the status changes. Returns the updated incident.
func (s *LibSQLStore) UpdateIncident(ctx context.Context, id string, update IncidentUpdate) (*Incident, error) {
	current, err := s.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Severity != nil {
		sets = append(sets, "severity = ?")
		args = append(args, string(*update.Severity))
	}
	if update.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *update.Location)
	}

	statusChanged := update.Status != nil && *update.Status != current.Status
	resolved := statusChanged && *update.Status == schema.IncidentResolved
	if statusChanged {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
		if resolved {
			sets = append(sets, "resolved_at = CURRENT_TIMESTAMP")
		}
	}

	if len(sets) == 0 {
		return current, nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("UPDATE incidents SET %s WHERE id = ? AND deleted_at IS NULL", strings.Join(sets, ", "))
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := checkRowsAffected(res, "incident", id); err != nil {
		return nil, err
	}

	if statusChanged {
		updateType := LiveUpdateStatusChange
		message := fmt.Sprintf("Incident %s moved to %s", id, *update.Status)
		if resolved {
			updateType = LiveUpdateResolved
			message = fmt.Sprintf("Incident %s resolved", id)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO live_updates (incident_id, update_type, message, timestamp) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
			id, updateType, message,
		); err != nil {
			return nil, fmt.Errorf("insert live update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetIncident(ctx, id)
}

// DeleteIncident soft-deletes; the row stays for the audit trail.
func (s *LibSQLStore) DeleteIncident(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "incident", id)
}

func (s *LibSQLStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]*Incident, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Location != "" {
		where = append(where, "lower(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}

	query := `SELECT id, title, description, severity, status, location, created_at, updated_at, resolved_at, deleted_at
		 FROM incidents WHERE ` + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	return s.queryIncidents(ctx, query, args...)
}

// SearchIncidents matches the query case-insensitively against id, title,
// description and location.
func (s *LibSQLStore) SearchIncidents(ctx context.Context, query string, limit int) ([]*Incident, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	sqlQuery := fmt.Sprintf(
		`SELECT id, title, description, severity, status, location, created_at, updated_at, resolved_at, deleted_at
		 FROM incidents
		 WHERE deleted_at IS NULL
		   AND (lower(id) LIKE ? OR lower(title) LIKE ? OR lower(description) LIKE ? OR lower(location) LIKE ?)
		 ORDER BY created_at DESC LIMIT %d`, limit)
	return s.queryIncidents(ctx, sqlQuery, pattern, pattern, pattern, pattern)
}

func (s *LibSQLStore) queryIncidents(ctx context.Context, query string, args ...any) ([]*Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		inc := &Incident{}
		var severity, status string
		var resolvedAt, deletedAt sql.NullTime
		if err := rows.Scan(&inc.ID, &inc.Title, &inc.Description, &severity, &status,
			&inc.Location, &inc.CreatedAt, &inc.UpdatedAt, &resolvedAt, &deletedAt); err != nil {
			return nil, err
		}
		inc.Severity = schema.Severity(severity)
		inc.Status = schema.IncidentStatus(status)
		if resolvedAt.Valid {
			inc.ResolvedAt = &resolvedAt.Time
		}
		if deletedAt.Valid {
			inc.DeletedAt = &deletedAt.Time
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// --- Live updates ---

func (s *LibSQLStore) RecentLiveUpdates(ctx context.Context, limit int) ([]*LiveUpdate, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, incident_id, update_type, message, timestamp
		 FROM live_updates ORDER BY timestamp DESC, id DESC LIMIT %d`, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []*LiveUpdate
	for rows.Next() {
		u := &LiveUpdate{}
		if err := rows.Scan(&u.ID, &u.IncidentID, &u.Type, &u.Message, &u.Timestamp); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// --- Audit log ---

func (s *LibSQLStore) GetAudit(ctx context.Context, incidentID string, since int64) ([]*AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, incident_id, event_type, payload, timestamp, sequence
		 FROM audit_events WHERE incident_id = ? AND sequence > ? ORDER BY sequence ASC`,
		incidentID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AuditEvent
	for rows.Next() {
		e := &AuditEvent{}
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.Type, &payload, &e.Timestamp, &e.Sequence); err != nil {
			return nil, err
		}
		e.Payload = rawOrNil(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.IntelError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Store = (*LibSQLStore)(nil)
