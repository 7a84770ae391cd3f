package mb

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up and on change.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// AuthService manages accounts in the record store and the signed-in user
// in AppState.
type AuthService struct {
	records RecordStore
	state   *AppState
	logger  Logger
	clock   Clock
	idgen   IDGenerator
	cost    int
}

// NewAuthService creates an AuthService hashing with bcrypt.DefaultCost.
func NewAuthService(records RecordStore, state *AppState, logger Logger, clock Clock, idgen IDGenerator) *AuthService {
	return &AuthService{
		records: records,
		state:   state,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		cost:    bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost, mostly so tests can use bcrypt.MinCost.
func (a *AuthService) SetHashCost(cost int) {
	a.cost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return newValidationError("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return newValidationError("email", "is not a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return newValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return newValidationError("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// SignUp creates an account and signs it in.
func (a *AuthService) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := a.records.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking for existing user: %w", err)
	}
	if existing != nil {
		return nil, newValidationError("email", "is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           a.idgen.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    a.clock.Now(),
	}
	if err := a.records.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if err := a.state.SetCurrentUser(CurrentUser{ID: user.ID, Email: user.Email}); err != nil {
		return nil, err
	}

	a.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// SignIn checks the credentials and records the user as signed in.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newValidationError("", "email and password are required")
	}

	user, err := a.records.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("checking password: %w", err)
	}

	if err := a.state.SetCurrentUser(CurrentUser{ID: user.ID, Email: user.Email}); err != nil {
		return nil, err
	}
	a.logger.Info("user signed in", "user_id", user.ID)
	return user, nil
}

// SignOut forgets the signed-in user. The favorites cache is left as it is.
func (a *AuthService) SignOut() error {
	user, ok := a.state.CurrentUser()
	if err := a.state.ClearCurrentUser(); err != nil {
		return err
	}
	if ok {
		a.logger.Info("user signed out", "user_id", user.ID)
	}
	return nil
}

// ChangePassword replaces the signed-in user's password. The confirmation
// must match.
func (a *AuthService) ChangePassword(ctx context.Context, password, confirm string) error {
	current, ok := a.state.CurrentUser()
	if !ok {
		return ErrNotSignedIn
	}
	if password != confirm {
		return newValidationError("password", "confirmation does not match")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := a.records.UpdateUserPassword(ctx, current.ID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	a.logger.Info("password changed", "user_id", current.ID)
	return nil
}
