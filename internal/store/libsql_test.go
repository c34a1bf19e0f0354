package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incintel/incintel/pkg/schema"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	})
	return s
}

func seedIncident(t *testing.T, s *LibSQLStore, title string, severity schema.Severity) *Incident {
	t.Helper()
	inc := &Incident{
		Title:       title,
		Description: "seeded for testing",
		Severity:    severity,
		Location:    "Sector 7",
	}
	require.NoError(t, s.CreateIncident(context.Background(), inc))
	return inc
}

// --- Incident tests ---

func TestCreateAndGetIncident(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inc := &Incident{
		Title:       "Water main burst",
		Description: "Flooding on level 2",
		Severity:    schema.SeverityHigh,
		Location:    "Downtown",
	}
	require.NoError(t, s.CreateIncident(ctx, inc))
	require.NotEmpty(t, inc.ID)
	assert.Regexp(t, `^INC-\d{8}-\d{6}$`, inc.ID)

	got, err := s.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water main burst", got.Title)
	assert.Equal(t, schema.SeverityHigh, got.Severity)
	assert.Equal(t, schema.IncidentOpen, got.Status)
	assert.Equal(t, "Downtown", got.Location)
	assert.Nil(t, got.ResolvedAt)
}

func TestCreateIncident_Defaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inc := &Incident{Title: "Minor alarm"}
	require.NoError(t, s.CreateIncident(ctx, inc))

	got, err := s.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.SeverityMedium, got.Severity)
	assert.Equal(t, schema.IncidentOpen, got.Status)
}

func TestCreateIncident_IDCollisionBumps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := &Incident{Title: "first", CreatedAt: now}
	second := &Incident{Title: "second", CreatedAt: now}
	require.NoError(t, s.CreateIncident(ctx, first))
	require.NoError(t, s.CreateIncident(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateIncident_ExplicitIDConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inc := &Incident{ID: "INC-20260101-000000", Title: "explicit"}
	require.NoError(t, s.CreateIncident(ctx, inc))

	dup := &Incident{ID: "INC-20260101-000000", Title: "duplicate"}
	err := s.CreateIncident(ctx, dup)
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeConflict, ierr.Code)
}

func TestGetIncident_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetIncident(context.Background(), "INC-19990101-000000")
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeNotFound, ierr.Code)
}

func TestUpdateIncident_PartialFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inc := seedIncident(t, s, "Power outage", schema.SeverityMedium)

	sev := schema.SeverityCritical
	got, err := s.UpdateIncident(ctx, inc.ID, IncidentUpdate{Severity: &sev})
	require.NoError(t, err)
	assert.Equal(t, schema.SeverityCritical, got.Severity)
	assert.Equal(t, "Power outage", got.Title)
	assert.Equal(t, schema.IncidentOpen, got.Status)
}

func TestUpdateIncident_ResolveSetsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inc := seedIncident(t, s, "Gas leak", schema.SeverityHigh)

	status := schema.IncidentResolved
	got, err := s.UpdateIncident(ctx, inc.ID, IncidentUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, schema.IncidentResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
}

func TestUpdateIncident_NoFieldsIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inc := seedIncident(t, s, "Noop", schema.SeverityLow)

	got, err := s.UpdateIncident(ctx, inc.ID, IncidentUpdate{})
	require.NoError(t, err)
	assert.Equal(t, inc.ID, got.ID)
}

func TestDeleteIncident_SoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inc := seedIncident(t, s, "To be removed", schema.SeverityLow)

	require.NoError(t, s.DeleteIncident(ctx, inc.ID))

	_, err := s.GetIncident(ctx, inc.ID)
	require.Error(t, err)

	// Deleting again reports not found.
	err = s.DeleteIncident(ctx, inc.ID)
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeNotFound, ierr.Code)
}

func TestListIncidents_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedIncident(t, s, "Fire alarm", schema.SeverityCritical)
	seedIncident(t, s, "Noise complaint", schema.SeverityLow)

	status := schema.IncidentInvestigating
	_, err := s.UpdateIncident(ctx, a.ID, IncidentUpdate{Status: &status})
	require.NoError(t, err)

	bySeverity, err := s.ListIncidents(ctx, IncidentFilter{Severity: schema.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, a.ID, bySeverity[0].ID)

	byStatus, err := s.ListIncidents(ctx, IncidentFilter{Status: schema.IncidentInvestigating})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a.ID, byStatus[0].ID)

	all, err := s.ListIncidents(ctx, IncidentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := s.ListIncidents(ctx, IncidentFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListIncidents_ExcludesDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inc := seedIncident(t, s, "Ghost", schema.SeverityLow)
	require.NoError(t, s.DeleteIncident(ctx, inc.ID))

	all, err := s.ListIncidents(ctx, IncidentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSearchIncidents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedIncident(t, s, "Gas leak near station", schema.SeverityHigh)
	seedIncident(t, s, "Traffic accident", schema.SeverityMedium)

	results, err := s.SearchIncidents(ctx, "GAS", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Gas leak near station", results[0].Title)

	byLocation, err := s.SearchIncidents(ctx, "sector 7", 0)
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)

	none, err := s.SearchIncidents(ctx, "volcano", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// --- Live update tests ---

func TestLiveUpdates_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inc := seedIncident(t, s, "Chemical spill", schema.SeverityCritical)

	status := schema.IncidentInvestigating
	_, err := s.UpdateIncident(ctx, inc.ID, IncidentUpdate{Status: &status})
	require.NoError(t, err)

	resolved := schema.IncidentResolved
	_, err = s.UpdateIncident(ctx, inc.ID, IncidentUpdate{Status: &resolved})
	require.NoError(t, err)

	updates, err := s.RecentLiveUpdates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, updates, 3)

	types := make([]string, 0, len(updates))
	for _, u := range updates {
		assert.Equal(t, inc.ID, u.IncidentID)
		types = append(types, u.Type)
	}
	assert.Contains(t, types, LiveUpdateNewIncident)
	assert.Contains(t, types, LiveUpdateStatusChange)
	assert.Contains(t, types, LiveUpdateResolved)
}

func TestRecentLiveUpdates_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for range 4 {
		seedIncident(t, s, "bulk", schema.SeverityLow)
	}

	updates, err := s.RecentLiveUpdates(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, updates, 2)
}

// --- Audit log tests ---

func TestAppendAudit_SequencePerIncident(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedIncident(t, s, "audited-a", schema.SeverityLow)
	b := seedIncident(t, s, "audited-b", schema.SeverityLow)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendAudit(ctx, &AuditEvent{
			IncidentID: a.ID,
			Type:       schema.EventIncidentUpdated,
			Payload:    []byte(`{"field":"status"}`),
		}))
	}
	require.NoError(t, s.AppendAudit(ctx, &AuditEvent{
		IncidentID: b.ID,
		Type:       schema.EventIncidentCreated,
	}))

	eventsA, err := s.GetAudit(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, eventsA, 3)
	for i, e := range eventsA {
		assert.Equal(t, int64(i+1), e.Sequence)
	}

	eventsB, err := s.GetAudit(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, eventsB, 1)
	assert.Equal(t, int64(1), eventsB[0].Sequence)
}

func TestGetAudit_Since(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inc := seedIncident(t, s, "audited", schema.SeverityLow)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendAudit(ctx, &AuditEvent{
			IncidentID: inc.ID,
			Type:       schema.EventIncidentUpdated,
		}))
	}

	events, err := s.GetAudit(ctx, inc.ID, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(3), events[0].Sequence)
}

func TestNewIncidentID_Format(t *testing.T) {
	ts := time.Date(2026, 8, 12, 14, 15, 3, 0, time.UTC)
	assert.Equal(t, "INC-20260812-141503", NewIncidentID(ts))
}
