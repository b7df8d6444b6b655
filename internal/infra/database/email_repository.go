package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

const templateColumns = `id, name, subject, body, category, variables, created_at, updated_at`

func (r *TemplateRepository) Create(ctx context.Context, t *entity.EmailTemplate) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_templates (id, name, subject, body, category, variables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Subject, t.Body, nullString(t.Category), pq.Array(t.Variables), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrTemplateNameExists
		}
		return err
	}
	return nil
}

func (r *TemplateRepository) Update(ctx context.Context, t *entity.EmailTemplate) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE email_templates
		SET name = $2, subject = $3, body = $4, category = $5, variables = $6, updated_at = $7
		WHERE id = $1`,
		t.ID, t.Name, t.Subject, t.Body, nullString(t.Category), pq.Array(t.Variables), t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrTemplateNameExists
		}
		return err
	}
	return expectOne(res, entity.ErrTemplateNotFound)
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrTemplateNotFound)
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.EmailTemplate, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *TemplateRepository) FindByName(ctx context.Context, name string) (*entity.EmailTemplate, error) {
	return r.findOne(ctx, `name = $1`, name)
}

func (r *TemplateRepository) findOne(ctx context.Context, where string, arg interface{}) (*entity.EmailTemplate, error) {
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTemplateNotFound
	}
	return t, err
}

func (r *TemplateRepository) List(ctx context.Context) ([]*entity.EmailTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*entity.EmailTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func scanTemplate(s scanner) (*entity.EmailTemplate, error) {
	var (
		t        entity.EmailTemplate
		category sql.NullString
		vars     pq.StringArray
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &category, &vars, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Category = fromNull(category)
	t.Variables = []string(vars)
	if t.Variables == nil {
		t.Variables = []string{}
	}
	return &t, nil
}

type EmailLogRepository struct {
	DB *sql.DB
}

func NewEmailLogRepository(db *sql.DB) *EmailLogRepository {
	return &EmailLogRepository{DB: db}
}

func (r *EmailLogRepository) Create(ctx context.Context, l *entity.EmailLog) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_logs (id, service_request_id, template_id, recipient, subject, status, sent_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID,
		nullString(l.ServiceRequestID),
		nullString(l.TemplateID),
		l.To,
		l.Subject,
		l.Status,
		nullString(l.SentBy),
		l.CreatedAt,
	)
	return err
}

func (r *EmailLogRepository) UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE email_logs SET status = $2, error = $3, sent_at = $4 WHERE id = $1`,
		id, status, nullString(errMsg), sentAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("email log %s not found", id))
}

func (r *EmailLogRepository) List(ctx context.Context, page entity.Page) ([]*entity.EmailLog, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, service_request_id, template_id, recipient, subject, status, error, sent_by, created_at, sent_at
		FROM email_logs
		ORDER BY created_at %s
		LIMIT $1 OFFSET $2`, direction(page.Direction))
	rows, err := r.DB.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*entity.EmailLog{}
	for rows.Next() {
		var (
			l                         entity.EmailLog
			srID, tplID, errMsg, sent sql.NullString
			sentAt                    sql.NullTime
		)
		if err := rows.Scan(&l.ID, &srID, &tplID, &l.To, &l.Subject, &l.Status, &errMsg, &sent, &l.CreatedAt, &sentAt); err != nil {
			return nil, 0, err
		}
		l.ServiceRequestID = fromNull(srID)
		l.TemplateID = fromNull(tplID)
		l.Error = fromNull(errMsg)
		l.SentBy = fromNull(sent)
		l.SentAt = timePtr(sentAt)
		items = append(items, &l)
	}
	return items, total, rows.Err()
}
