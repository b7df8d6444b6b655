package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, token, contact, address, technical, completed_steps, status, consent_accepted,
	comments, service_request_id, reference_number, reminded_at, created_at, updated_at, finalized_at`

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	contact, address, technical, err := marshalSections(lead.Contact, lead.Address, lead.Technical)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, token, contact, address, technical, completed_steps, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Token,
		contact,
		address,
		technical,
		pq.Array(toInt64(lead.CompletedSteps)),
		lead.Status,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	return err
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	contact, address, technical, err := marshalSections(lead.Contact, lead.Address, lead.Technical)
	if err != nil {
		return err
	}

	query := `
		UPDATE leads SET
			contact = $2, address = $3, technical = $4, completed_steps = $5, status = $6,
			consent_accepted = $7, comments = $8, service_request_id = $9, reference_number = $10,
			updated_at = $11, finalized_at = $12
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		contact,
		address,
		technical,
		pq.Array(toInt64(lead.CompletedSteps)),
		lead.Status,
		lead.ConsentAccepted,
		nullString(lead.Comments),
		nullString(lead.ServiceRequestID),
		nullString(lead.ReferenceNumber),
		lead.UpdatedAt,
		lead.FinalizedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) FindByToken(ctx context.Context, token string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE token = $1`, token)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

// FindStaleDrafts lista rascunhos parados desde idleSince que ainda não receberam lembrete
// e já têm email (sem email não há a quem lembrar).
func (r *LeadRepository) FindStaleDrafts(ctx context.Context, idleSince time.Time, limit int) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE status = 'draft'
		  AND reminded_at IS NULL
		  AND updated_at < $1
		  AND COALESCE(contact->>'email', '') <> ''
		ORDER BY updated_at
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, idleSince, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) MarkReminded(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET reminded_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanLead(s scanner) (*entity.Lead, error) {
	var (
		lead                        entity.Lead
		contact, address, technical []byte
		steps                       pq.Int64Array
		comments, srID, reference   sql.NullString
		remindedAt, finalizedAt     sql.NullTime
	)
	err := s.Scan(
		&lead.ID,
		&lead.Token,
		&contact,
		&address,
		&technical,
		&steps,
		&lead.Status,
		&lead.ConsentAccepted,
		&comments,
		&srID,
		&reference,
		&remindedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&finalizedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalSections(contact, address, technical, &lead.Contact, &lead.Address, &lead.Technical); err != nil {
		return nil, err
	}

	lead.CompletedSteps = make([]int, 0, len(steps))
	for _, s := range steps {
		lead.CompletedSteps = append(lead.CompletedSteps, int(s))
	}
	lead.Comments = fromNull(comments)
	lead.ServiceRequestID = fromNull(srID)
	lead.ReferenceNumber = fromNull(reference)
	lead.RemindedAt = timePtr(remindedAt)
	lead.FinalizedAt = timePtr(finalizedAt)
	return &lead, nil
}

func marshalSections(contact entity.Contact, address entity.SiteAddress, technical entity.Technical) ([]byte, []byte, []byte, error) {
	c, err := json.Marshal(contact)
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := json.Marshal(address)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := json.Marshal(technical)
	if err != nil {
		return nil, nil, nil, err
	}
	return c, a, t, nil
}

func unmarshalSections(contact, address, technical []byte, c *entity.Contact, a *entity.SiteAddress, t *entity.Technical) error {
	if err := json.Unmarshal(contact, c); err != nil {
		return err
	}
	if err := json.Unmarshal(address, a); err != nil {
		return err
	}
	return json.Unmarshal(technical, t)
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
