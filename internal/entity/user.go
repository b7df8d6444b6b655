package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// Permissões do back-office.
const (
	PermDashboardView    = "dashboard.view"
	PermRequestsView     = "requests.view"
	PermRequestsEdit     = "requests.edit"
	PermRequestsDelete   = "requests.delete"
	PermRequestsExport   = "requests.export"
	PermUsersManage      = "users.manage"
	PermEmailsView       = "emails.view"
	PermEmailsSend       = "emails.send"
	PermTemplatesManage  = "templates.manage"
	PermAutomationManage = "automation.manage"
	PermContactsView     = "contacts.view"
)

var AllPermissions = []string{
	PermDashboardView,
	PermRequestsView,
	PermRequestsEdit,
	PermRequestsDelete,
	PermRequestsExport,
	PermUsersManage,
	PermEmailsView,
	PermEmailsSend,
	PermTemplatesManage,
	PermAutomationManage,
	PermContactsView,
}

var rolePermissions = map[string][]string{
	RoleAdmin: AllPermissions,
	RoleManager: {
		PermDashboardView,
		PermRequestsView,
		PermRequestsEdit,
		PermRequestsDelete,
		PermRequestsExport,
		PermEmailsView,
		PermEmailsSend,
		PermTemplatesManage,
		PermAutomationManage,
		PermContactsView,
	},
	RoleAgent: {
		PermDashboardView,
		PermRequestsView,
		PermRequestsEdit,
		PermEmailsView,
		PermEmailsSend,
		PermContactsView,
	},
}

func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// DefaultPermissions returns a copy of the role's permission template.
func DefaultPermissions(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

func PermissionTemplates() map[string][]string {
	out := make(map[string][]string, len(rolePermissions))
	for role := range rolePermissions {
		out[role] = DefaultPermissions(role)
	}
	return out
}

func IsValidPermission(p string) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

type SMTPSettings struct {
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"-"`
	FromEmail string `json:"from_email,omitempty"`
}

func (s SMTPSettings) Configured() bool {
	return s.Host != "" && s.Port > 0 && s.Username != ""
}

type User struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	Name           string       `json:"name"`
	Role           string       `json:"role"`
	Permissions    []string     `json:"permissions"`
	PasswordHash   string       `json:"-"`
	Active         bool         `json:"active"`
	SMTP           SMTPSettings `json:"smtp"`
	CommissionRate float64      `json:"commission_rate"`
	LastLoginAt    *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func NewUser(email, name, role string) *User {
	now := time.Now()
	return &User{
		ID:          uuid.New().String(),
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: DefaultPermissions(role),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *User) Can(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}
