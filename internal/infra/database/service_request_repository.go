package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type ServiceRequestRepository struct {
	DB *sql.DB
}

func NewServiceRequestRepository(db *sql.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{DB: db}
}

const serviceRequestColumns = `id, reference_number, lead_id, contact, address, technical,
	price_ht_cents, tva_cents, price_ttc_cents, status, payment_status, payment_session_id, payment_url,
	assigned_to, notes, comments, source, created_at, updated_at, paid_at`

// Colunas ordenáveis; o resto cai em created_at.
var serviceRequestSort = map[string]string{
	"created_at":       "created_at",
	"updated_at":       "updated_at",
	"reference_number": "reference_number",
	"status":           "status",
	"price_ttc_cents":  "price_ttc_cents",
	"last_name":        "contact->>'last_name'",
}

func (r *ServiceRequestRepository) Create(ctx context.Context, sr *entity.ServiceRequest) error {
	contact, address, technical, err := marshalSections(sr.Contact, sr.Address, sr.Technical)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO service_requests (
			id, reference_number, lead_id, contact, address, technical,
			price_ht_cents, tva_cents, price_ttc_cents, status, payment_status,
			comments, source, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.DB.ExecContext(ctx, query,
		sr.ID,
		sr.ReferenceNumber,
		nullString(sr.LeadID),
		contact,
		address,
		technical,
		sr.Pricing.PriceHTCents,
		sr.Pricing.TVACents,
		sr.Pricing.PriceTTCCents,
		sr.Status,
		sr.PaymentStatus,
		nullString(sr.Comments),
		sr.Source,
		sr.CreatedAt,
		sr.UpdatedAt,
	)
	return err
}

func (r *ServiceRequestRepository) Update(ctx context.Context, sr *entity.ServiceRequest) error {
	contact, address, technical, err := marshalSections(sr.Contact, sr.Address, sr.Technical)
	if err != nil {
		return err
	}

	query := `
		UPDATE service_requests SET
			contact = $2, address = $3, technical = $4,
			price_ht_cents = $5, tva_cents = $6, price_ttc_cents = $7,
			status = $8, payment_status = $9, assigned_to = $10, notes = $11,
			updated_at = $12, paid_at = $13
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		sr.ID,
		contact,
		address,
		technical,
		sr.Pricing.PriceHTCents,
		sr.Pricing.TVACents,
		sr.Pricing.PriceTTCCents,
		sr.Status,
		sr.PaymentStatus,
		nullString(sr.AssignedTo),
		nullString(sr.Notes),
		sr.UpdatedAt,
		sr.PaidAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: assigned_to", entity.ErrUnknownReference)
		}
		return err
	}
	return expectOne(res, entity.ErrServiceRequestNotFound)
}

func (r *ServiceRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrServiceRequestNotFound)
}

func (r *ServiceRequestRepository) FindByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *ServiceRequestRepository) FindByReference(ctx context.Context, reference string) (*entity.ServiceRequest, error) {
	return r.findOne(ctx, `reference_number = $1`, reference)
}

func (r *ServiceRequestRepository) findOne(ctx context.Context, where string, arg interface{}) (*entity.ServiceRequest, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE `+where, arg)
	sr, err := scanServiceRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrServiceRequestNotFound
	}
	return sr, err
}

func (r *ServiceRequestRepository) FindByIDs(ctx context.Context, ids []string) ([]*entity.ServiceRequest, error) {
	if len(ids) == 0 {
		return []*entity.ServiceRequest{}, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+serviceRequestColumns+` FROM service_requests WHERE id::text = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	return collectServiceRequests(rows)
}

// List monta os filtros dinamicamente e devolve a página junto com o total.
func (r *ServiceRequestRepository) List(ctx context.Context, filter entity.ServiceRequestFilter, page entity.Page) ([]*entity.ServiceRequest, int, error) {
	where, args := serviceRequestWhere(filter)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := serviceRequestSort[page.Sort]
	if !ok {
		sortCol = "created_at"
	}
	query := fmt.Sprintf(`SELECT %s FROM service_requests%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		serviceRequestColumns, where, sortCol, direction(page.Direction), len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectServiceRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func serviceRequestWhere(f entity.ServiceRequestFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.AssignedTo != "" {
		add("assigned_to::text = $%d", f.AssignedTo)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add(`(reference_number ILIKE $%[1]d
			OR contact->>'email' ILIKE $%[1]d
			OR contact->>'last_name' ILIKE $%[1]d
			OR contact->>'first_name' ILIKE $%[1]d
			OR contact->>'company_name' ILIKE $%[1]d
			OR address->>'city' ILIKE $%[1]d)`, "%"+s+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ServiceRequestRepository) UpdatePayment(ctx context.Context, id, sessionID, paymentURL string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE service_requests SET payment_session_id = $2, payment_url = $3, updated_at = NOW() WHERE id = $1`,
		id, nullString(sessionID), nullString(paymentURL),
	)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrServiceRequestNotFound)
}

// MarkPaid é idempotente: pagar de novo não muda o paid_at original.
func (r *ServiceRequestRepository) MarkPaid(ctx context.Context, reference string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE service_requests
		SET payment_status = 'paid', paid_at = COALESCE(paid_at, $2), updated_at = $2
		WHERE reference_number = $1`,
		reference, at,
	)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrServiceRequestNotFound)
}

func (r *ServiceRequestRepository) Stats(ctx context.Context, since time.Time) (*entity.Stats, error) {
	stats := &entity.Stats{ByStatus: map[string]int{}}

	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM service_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE payment_status = 'paid'),
			COALESCE(SUM(price_ttc_cents) FILTER (WHERE payment_status = 'paid'), 0),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM service_requests`, since,
	).Scan(&stats.Paid, &stats.RevenueTTCCents, &stats.LastThirtyDays)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func collectServiceRequests(rows *sql.Rows) ([]*entity.ServiceRequest, error) {
	defer rows.Close()
	items := []*entity.ServiceRequest{}
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sr)
	}
	return items, rows.Err()
}

func scanServiceRequest(s scanner) (*entity.ServiceRequest, error) {
	var (
		sr                            entity.ServiceRequest
		contact, address, technical   []byte
		leadID, sessionID, paymentURL sql.NullString
		assignedTo, notes, comments   sql.NullString
		paidAt                        sql.NullTime
	)
	err := s.Scan(
		&sr.ID,
		&sr.ReferenceNumber,
		&leadID,
		&contact,
		&address,
		&technical,
		&sr.Pricing.PriceHTCents,
		&sr.Pricing.TVACents,
		&sr.Pricing.PriceTTCCents,
		&sr.Status,
		&sr.PaymentStatus,
		&sessionID,
		&paymentURL,
		&assignedTo,
		&notes,
		&comments,
		&sr.Source,
		&sr.CreatedAt,
		&sr.UpdatedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalSections(contact, address, technical, &sr.Contact, &sr.Address, &sr.Technical); err != nil {
		return nil, err
	}
	sr.LeadID = fromNull(leadID)
	sr.PaymentSessionID = fromNull(sessionID)
	sr.PaymentURL = fromNull(paymentURL)
	sr.AssignedTo = fromNull(assignedTo)
	sr.Notes = fromNull(notes)
	sr.Comments = fromNull(comments)
	sr.PaidAt = timePtr(paidAt)
	return &sr, nil
}
