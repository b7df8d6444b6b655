package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

func (r *ContactRepository) Create(ctx context.Context, m *entity.ContactMessage) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Email, nullString(m.Phone), nullString(m.Subject), m.Message, m.CreatedAt,
	)
	return err
}

func (r *ContactRepository) List(ctx context.Context, page entity.Page) ([]*entity.ContactMessage, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, phone, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at %s
		LIMIT $1 OFFSET $2`, direction(page.Direction))
	rows, err := r.DB.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*entity.ContactMessage{}
	for rows.Next() {
		var m entity.ContactMessage
		var phone, subject sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &phone, &subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		m.Phone = fromNull(phone)
		m.Subject = fromNull(subject)
		items = append(items, &m)
	}
	return items, total, rows.Err()
}

type AutomationRepository struct {
	DB *sql.DB
}

func NewAutomationRepository(db *sql.DB) *AutomationRepository {
	return &AutomationRepository{DB: db}
}

func (r *AutomationRepository) List(ctx context.Context) ([]*entity.AutomationSetting, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key, enabled, description, updated_by, updated_at FROM automation_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*entity.AutomationSetting
	for rows.Next() {
		s, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *AutomationRepository) FindByKey(ctx context.Context, key string) (*entity.AutomationSetting, error) {
	s, err := scanAutomation(r.DB.QueryRowContext(ctx,
		`SELECT key, enabled, description, updated_by, updated_at FROM automation_settings WHERE key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAutomationNotFound
	}
	return s, err
}

func (r *AutomationRepository) Upsert(ctx context.Context, s *entity.AutomationSetting) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO automation_settings (key, enabled, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key)
		DO UPDATE SET
			enabled = EXCLUDED.enabled,
			description = COALESCE(NULLIF(EXCLUDED.description, ''), automation_settings.description),
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`,
		s.Key, s.Enabled, s.Description, nullString(s.UpdatedBy), s.UpdatedAt,
	)
	return err
}

func scanAutomation(sc scanner) (*entity.AutomationSetting, error) {
	var s entity.AutomationSetting
	var updatedBy sql.NullString
	if err := sc.Scan(&s.Key, &s.Enabled, &s.Description, &updatedBy, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.UpdatedBy = fromNull(updatedBy)
	return &s, nil
}
