package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps a hash at roughly 100ms on current hardware.
const DefaultBcryptCost = 10

// IdentityOptions tunes account registration.
type IdentityOptions struct {
	BcryptCost           int
	Policy               *PasswordPolicy
	BlockDisposableEmail bool
}

// IdentityService registers accounts, verifies credentials and maintains
// profile settings.
type IdentityService struct {
	users  repository.UserStore
	opts   IdentityOptions
	logger *slog.Logger

	// dummyHash is compared against when the account does not exist so a
	// failed login costs the same either way.
	dummyHash []byte
}

// NewIdentityService creates a new identity service.
func NewIdentityService(users repository.UserStore, opts IdentityOptions, logger *slog.Logger) (*IdentityService, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("nexus-crm-dummy-password"), opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &IdentityService{users: users, opts: opts, logger: logger, dummyHash: dummy}, nil
}

// Register creates a new account and returns its id.
func (s *IdentityService) Register(ctx context.Context, in validate.SignupInput) (uuid.UUID, error) {
	in, err := validate.Signup(in)
	if err != nil {
		return uuid.Nil, err
	}
	if s.opts.BlockDisposableEmail && IsDisposableEmail(in.Email) {
		return uuid.Nil, domain.NewValidationError("email", "disposable email addresses are not allowed")
	}
	if s.opts.Policy != nil {
		if err := s.opts.Policy.Check(in.Password); err != nil {
			return uuid.Nil, err
		}
	}

	// Fast path; the unique index still decides under a race.
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return uuid.Nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, err
	}

	hash, err := HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         SanitizeName(in.Name),
		Currency:     domain.DefaultCurrency,
		Timezone:     domain.DefaultTimezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("account registered", "user_id", user.ID)
	return user.ID, nil
}

// Authenticate verifies an email and password. A missing account and a wrong
// password both yield domain.ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Principal(), nil
}

// Profile returns the persisted account.
func (s *IdentityService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateSettings validates and persists a profile change.
func (s *IdentityService) UpdateSettings(ctx context.Context, userID uuid.UUID, in validate.SettingsInput) (*domain.User, error) {
	patch, err := validate.Settings(in)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := SanitizeName(*patch.Name)
		patch.Name = &name
	}
	return s.users.UpdateProfile(ctx, userID, patch)
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password", "must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
