package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, name, role, permissions, password_hash, active,
	smtp_host, smtp_port, smtp_username, smtp_password, smtp_from_email,
	commission_rate, last_login_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (
			id, email, name, role, permissions, password_hash, active,
			smtp_host, smtp_port, smtp_username, smtp_password, smtp_from_email,
			commission_rate, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.DB.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.Role,
		pq.Array(u.Permissions),
		u.PasswordHash,
		u.Active,
		nullString(u.SMTP.Host),
		nullPort(u.SMTP.Port),
		nullString(u.SMTP.Username),
		nullString(u.SMTP.Password),
		nullString(u.SMTP.FromEmail),
		u.CommissionRate,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET
			email = $2, name = $3, role = $4, permissions = $5, password_hash = $6, active = $7,
			smtp_host = $8, smtp_port = $9, smtp_username = $10, smtp_password = $11, smtp_from_email = $12,
			commission_rate = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.Role,
		pq.Array(u.Permissions),
		u.PasswordHash,
		u.Active,
		nullString(u.SMTP.Host),
		nullPort(u.SMTP.Port),
		nullString(u.SMTP.Username),
		nullString(u.SMTP.Password),
		nullString(u.SMTP.FromEmail),
		u.CommissionRate,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return err
	}
	return expectOne(res, entity.ErrUserNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrUserNotFound)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func scanUser(s scanner) (*entity.User, error) {
	var (
		u                              entity.User
		perms                          pq.StringArray
		host, username, password, from sql.NullString
		port                           sql.NullInt64
		lastLogin                      sql.NullTime
	)
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&perms,
		&u.PasswordHash,
		&u.Active,
		&host,
		&port,
		&username,
		&password,
		&from,
		&u.CommissionRate,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Permissions = []string(perms)
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	u.SMTP = entity.SMTPSettings{
		Host:      fromNull(host),
		Port:      int(port.Int64),
		Username:  fromNull(username),
		Password:  fromNull(password),
		FromEmail: fromNull(from),
	}
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

func nullPort(p int) *int {
	if p <= 0 {
		return nil
	}
	return &p
}
