package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const minPasswordLength = 8

type UserUseCase struct {
	Users  entity.UserRepositoryInterface
	Hasher PasswordHasher
	Tokens TokenIssuer
	Logger *zap.Logger
}

func NewUserUseCase(users entity.UserRepositoryInterface, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *UserUseCase {
	return &UserUseCase{Users: users, Hasher: hasher, Tokens: tokens, Logger: logger}
}

func (uc *UserUseCase) Create(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	var errs []ValidationError
	if email == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if !isValidEmail(email) {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}
	if name == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	}
	if !entity.IsValidRole(input.Role) {
		errs = append(errs, ValidationError{"role", "must be admin, manager or agent"})
	}
	if len(input.Password) < minPasswordLength {
		errs = append(errs, ValidationError{"password", "must have at least 8 characters"})
	}
	errs = append(errs, permissionErrors(input.Permissions)...)
	errs = append(errs, commissionErrors(input.CommissionRate)...)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	u := entity.NewUser(email, name, input.Role)
	if len(input.Permissions) > 0 {
		u.Permissions = dedupe(input.Permissions)
	}
	if input.Active != nil {
		u.Active = *input.Active
	}
	if input.SMTP != nil {
		u.SMTP = smtpFromInput(*input.SMTP, entity.SMTPSettings{})
	}
	u.CommissionRate = input.CommissionRate

	hash, err := uc.Hasher.Hash(input.Password)
	if err != nil {
		return nil, &TechnicalError{Code: CodeAuth, Message: "failed to hash password", Err: err}
	}
	u.PasswordHash = hash

	if err := uc.Users.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{Code: CodeEmailExists, Message: "email already in use"}
		}
		return nil, dbError("failed to create user", err)
	}
	uc.Logger.Info("👤 user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

func (uc *UserUseCase) List(ctx context.Context) ([]*entity.User, error) {
	users, err := uc.Users.List(ctx)
	if err != nil {
		return nil, dbError("failed to list users", err)
	}
	if users == nil {
		users = []*entity.User{}
	}
	return users, nil
}

func (uc *UserUseCase) Get(ctx context.Context, id string) (*entity.User, error) {
	if !isUUID(id) {
		return nil, notFound("user")
	}
	u, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, notFound("user")
		}
		return nil, dbError("failed to load user", err)
	}
	return u, nil
}

// Update: trocar o papel sem mandar permissões reseta para o template do papel;
// senha vazia mantém o hash atual.
func (uc *UserUseCase) Update(ctx context.Context, id string, input UpdateUserInput) (*entity.User, error) {
	u, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var errs []ValidationError
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !isValidEmail(email) {
			errs = append(errs, ValidationError{"email", "is invalid"})
		}
		input.Email = &email
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		errs = append(errs, ValidationError{"name", "must not be empty"})
	}
	if input.Role != nil && !entity.IsValidRole(*input.Role) {
		errs = append(errs, ValidationError{"role", "must be admin, manager or agent"})
	}
	if input.Password != "" && len(input.Password) < minPasswordLength {
		errs = append(errs, ValidationError{"password", "must have at least 8 characters"})
	}
	errs = append(errs, permissionErrors(input.Permissions)...)
	if input.CommissionRate != nil {
		errs = append(errs, commissionErrors(*input.CommissionRate)...)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil && *input.Role != u.Role {
		u.Role = *input.Role
		if len(input.Permissions) == 0 {
			u.Permissions = entity.DefaultPermissions(u.Role)
		}
	}
	if len(input.Permissions) > 0 {
		u.Permissions = dedupe(input.Permissions)
	}
	if input.Active != nil {
		u.Active = *input.Active
	}
	if input.SMTP != nil {
		u.SMTP = smtpFromInput(*input.SMTP, u.SMTP)
	}
	if input.CommissionRate != nil {
		u.CommissionRate = *input.CommissionRate
	}
	if input.Password != "" {
		hash, err := uc.Hasher.Hash(input.Password)
		if err != nil {
			return nil, &TechnicalError{Code: CodeAuth, Message: "failed to hash password", Err: err}
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = time.Now()

	if err := uc.Users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, entity.ErrEmailAlreadyExists):
			return nil, &DomainError{Code: CodeEmailExists, Message: "email already in use"}
		case errors.Is(err, entity.ErrUserNotFound):
			return nil, notFound("user")
		}
		return nil, dbError("failed to update user", err)
	}
	return u, nil
}

func (uc *UserUseCase) Delete(ctx context.Context, id, currentUserID string) error {
	if id == currentUserID {
		return &DomainError{Code: CodeForbidden, Message: "you cannot delete your own account"}
	}
	if !isUUID(id) {
		return notFound("user")
	}
	if err := uc.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return notFound("user")
		}
		return dbError("failed to delete user", err)
	}
	uc.Logger.Info("👤 user deleted", zap.String("user_id", id))
	return nil
}

func (uc *UserUseCase) PermissionTemplates() map[string][]string {
	return entity.PermissionTemplates()
}

func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	invalid := &DomainError{Code: CodeInvalidCredentials, Message: entity.ErrInvalidCredentials.Error()}

	u, err := uc.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, invalid
		}
		return nil, dbError("failed to load user", err)
	}
	if !u.Active {
		return nil, invalid
	}
	if err := uc.Hasher.Compare(u.PasswordHash, input.Password); err != nil {
		return nil, invalid
	}

	token, expiresAt, err := uc.Tokens.Issue(u)
	if err != nil {
		return nil, &TechnicalError{Code: CodeAuth, Message: "failed to issue token", Err: err}
	}

	now := time.Now()
	if err := uc.Users.TouchLogin(ctx, u.ID, now); err != nil {
		uc.Logger.Warn("⚠️ last login not recorded", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.LastLoginAt = &now

	return &LoginOutput{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Me recarrega o usuário do token; conta desativada perde o acesso na hora.
func (uc *UserUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	u, err := uc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, &DomainError{Code: CodeForbidden, Message: "account disabled"}
	}
	return u, nil
}

func permissionErrors(perms []string) []ValidationError {
	var errs []ValidationError
	for _, p := range perms {
		if !entity.IsValidPermission(p) {
			errs = append(errs, ValidationError{"permissions", "unknown permission " + p})
		}
	}
	return errs
}

func commissionErrors(rate float64) []ValidationError {
	if rate < 0 || rate > 100 {
		return []ValidationError{{"commission_rate", "must be between 0 and 100"}}
	}
	return nil
}

func smtpFromInput(in SMTPSettingsInput, current entity.SMTPSettings) entity.SMTPSettings {
	out := entity.SMTPSettings{
		Host:      strings.TrimSpace(in.Host),
		Port:      in.Port,
		Username:  strings.TrimSpace(in.Username),
		Password:  in.Password,
		FromEmail: strings.TrimSpace(in.FromEmail),
	}
	if out.Password == "" {
		out.Password = current.Password
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
