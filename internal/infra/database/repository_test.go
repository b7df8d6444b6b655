package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var leadRowColumns = []string{
	"id", "token", "contact", "address", "technical", "completed_steps", "status", "consent_accepted",
	"comments", "service_request_id", "reference_number", "reminded_at", "created_at", "updated_at", "finalized_at",
}

func TestLeadRepositoryCreate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	lead := entity.NewLead()
	lead.Contact.Email = "jean@dupont.fr"
	lead.MarkStepCompleted(entity.StepContact)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.Token, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "{1}", entity.LeadStatusDraft, lead.CreatedAt, lead.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), lead))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryFindByToken(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(leadRowColumns).AddRow(
		"lead-1", "tok-1",
		[]byte(`{"client_type":"particulier","first_name":"Jean","email":"jean@dupont.fr"}`),
		[]byte(`{"postal_code":"33000","city":"Bordeaux"}`),
		[]byte(`{"request_type":"raccordement_definitif","power_kva":9}`),
		"{1,2}", entity.LeadStatusDraft, false,
		nil, nil, nil, nil, now, now, nil,
	)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE token = \$1`).WithArgs("tok-1").WillReturnRows(rows)

	lead, err := repo.FindByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Jean", lead.Contact.FirstName)
	assert.Equal(t, "Bordeaux", lead.Address.City)
	assert.Equal(t, 9.0, lead.Technical.PowerKVA)
	assert.Equal(t, []int{1, 2}, lead.CompletedSteps)
	assert.Nil(t, lead.FinalizedAt)
}

func TestLeadRepositoryFindByTokenNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	mock.ExpectQuery(`SELECT .* FROM leads`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestLeadRepositoryUpdateMissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	mock.ExpectExec(`UPDATE leads SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), entity.NewLead())
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestLeadRepositoryFindStaleDrafts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	cutoff := time.Now().Add(-24 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(`FROM leads\s+WHERE status = 'draft'\s+AND reminded_at IS NULL`).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(leadRowColumns).AddRow(
			"lead-1", "tok-1", []byte(`{"email":"a@b.fr"}`), []byte(`{}`), []byte(`{}`),
			"{}", entity.LeadStatusDraft, false, nil, nil, nil, nil, now, now, nil,
		))

	leads, err := repo.FindStaleDrafts(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].CompletedSteps)
}

func TestLeadRepositoryCountByStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLeadRepository(db)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM leads GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("draft", 4).AddRow("finalized", 2))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"draft": 4, "finalized": 2}, counts)
}

func TestServiceRequestListBuildsFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewServiceRequestRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM service_requests WHERE status = \$1 AND \(reference_number ILIKE \$2`).
		WithArgs(entity.StatusPending, "%dupont%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY contact->>'last_name' ASC LIMIT \$3 OFFSET \$4`).
		WithArgs(entity.StatusPending, "%dupont%", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(),
		entity.ServiceRequestFilter{Status: entity.StatusPending, Search: " dupont "},
		entity.Page{Page: 2, Size: 10, Sort: "last_name", Direction: 1},
	)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestFindByReference(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewServiceRequestRepository(db)
	now := time.Now()

	cols := []string{
		"id", "reference_number", "lead_id", "contact", "address", "technical",
		"price_ht_cents", "tva_cents", "price_ttc_cents", "status", "payment_status", "payment_session_id", "payment_url",
		"assigned_to", "notes", "comments", "source", "created_at", "updated_at", "paid_at",
	}
	mock.ExpectQuery(`WHERE reference_number = \$1`).
		WithArgs("RAC-20261015-ABC123").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"sr-1", "RAC-20261015-ABC123", "lead-1",
			[]byte(`{"last_name":"Dupont"}`), []byte(`{"city":"Lyon"}`), []byte(`{"request_type":"viabilisation"}`),
			int64(129000), int64(25800), int64(154800), "pending", "unpaid", "cs_test", "https://pay",
			nil, nil, "merci", "form", now, now, nil,
		))

	sr, err := repo.FindByReference(context.Background(), "RAC-20261015-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", sr.LeadID)
	assert.Equal(t, "Dupont", sr.Contact.LastName)
	assert.Equal(t, int64(154800), sr.Pricing.PriceTTCCents)
	assert.Equal(t, "cs_test", sr.PaymentSessionID)
	assert.Empty(t, sr.AssignedTo)
}

func TestServiceRequestMarkPaidUnknownReference(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewServiceRequestRepository(db)
	at := time.Now()
	mock.ExpectExec(`UPDATE service_requests\s+SET payment_status = 'paid'`).
		WithArgs("RAC-404", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPaid(context.Background(), "RAC-404", at)
	assert.ErrorIs(t, err, entity.ErrServiceRequestNotFound)
}

func TestServiceRequestUpdateUnknownAssignee(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewServiceRequestRepository(db)
	mock.ExpectExec(`UPDATE service_requests SET`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "service_requests_assigned_to_fkey"})

	sr := entity.NewServiceRequest(entity.Contact{}, entity.SiteAddress{}, entity.Technical{}, entity.SourceForm)
	sr.AssignedTo = "6f1c2a52-8d5e-4c7b-9a0e-3f2d1b4c5e6f"
	err := repo.Update(context.Background(), sr)
	assert.ErrorIs(t, err, entity.ErrUnknownReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStats(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewServiceRequestRepository(db)
	since := time.Now().AddDate(0, 0, -30)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM service_requests GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 3).AddRow("completed", 1))
	mock.ExpectQuery(`FILTER \(WHERE payment_status = 'paid'\)`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"paid", "revenue", "recent"}).AddRow(1, int64(106800), 2))

	stats, err := repo.Stats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByStatus["pending"])
	assert.Equal(t, int64(106800), stats.RevenueTTCCents)
	assert.Equal(t, 2, stats.LastThirtyDays)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), entity.NewUser("a@b.fr", "A", entity.RoleAgent))
	assert.ErrorIs(t, err, entity.ErrEmailAlreadyExists)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	cols := []string{
		"id", "email", "name", "role", "permissions", "password_hash", "active",
		"smtp_host", "smtp_port", "smtp_username", "smtp_password", "smtp_from_email",
		"commission_rate", "last_login_at", "created_at", "updated_at",
	}
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("agent@raccordement.fr").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"u-1", "agent@raccordement.fr", "Agent", "agent", "{requests.view,emails.send}", "hash", true,
			"smtp.ovh.net", int64(587), "agent", "secret", nil,
			12.5, nil, now, now,
		))

	u, err := repo.FindByEmail(context.Background(), "agent@raccordement.fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"requests.view", "emails.send"}, u.Permissions)
	assert.True(t, u.SMTP.Configured())
	assert.Equal(t, "secret", u.SMTP.Password)
	assert.Equal(t, 12.5, u.CommissionRate)
}

func TestTemplateRepositoryDuplicateName(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTemplateRepository(db)
	mock.ExpectExec(`INSERT INTO email_templates`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), entity.NewEmailTemplate("relance", "s", "b", ""))
	assert.ErrorIs(t, err, entity.ErrTemplateNameExists)
}

func TestAutomationRepositoryFindByKeyMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAutomationRepository(db)
	mock.ExpectQuery(`FROM automation_settings WHERE key = \$1`).WithArgs("draft_reminder").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "draft_reminder")
	assert.ErrorIs(t, err, entity.ErrAutomationNotFound)
}

func TestEmailLogRepositoryUpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEmailLogRepository(db)
	sentAt := time.Now()
	mock.ExpectExec(`UPDATE email_logs SET status = \$2`).
		WithArgs("log-1", entity.EmailSent, nil, &sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "log-1", entity.EmailSent, "", &sentAt))
}

func TestMigrateAppliesPendingFiles(t *testing.T) {
	db, mock := setupMockDB(t)
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	for _, name := range names {
		raw, err := migrationFiles.ReadFile("migrations/" + name)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(name).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		for range splitStatements(string(raw)) {
			mock.ExpectExec(`.+`).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(name).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	applied, err := Migrate(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(names), applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSkipsAppliedFiles(t *testing.T) {
	db, mock := setupMockDB(t)
	names, err := migrationNames()
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	for _, name := range names {
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(name).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	applied, err := Migrate(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, applied)
}
