package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be 8 to 72 bytes long")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters without spaces or @")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already registered")
)

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost returns a copy of the authenticator hashing with the given bcrypt cost.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	c := *a
	c.cost = cost
	return &c
}

// ValidateCredential checks the password length in bytes.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 || len(credential) > maxPasswordBytes {
		return ErrWeakPassword
	}
	return nil
}

// ValidateUsername checks the username format. Usernames never contain @ so
// that a login can be told apart from an email address.
func ValidateUsername(username string) error {
	if n := len(username); n < 3 || n > 32 {
		return ErrInvalidUsername
	}
	for _, r := range username {
		if r == '@' || unicode.IsSpace(r) {
			return ErrInvalidUsername
		}
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, email, credential string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	// Check if username or email already exists
	if _, err := a.storage.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrWeakPassword
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(username, email, string(hashedPassword))

	// A concurrent registration can still win the race; the unique index decides.
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the login and password, returning the user if valid.
// A login containing @ is looked up as an email, anything else as a username.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, login, credential string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = a.storage.GetUserByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = a.storage.GetUserByUsername(ctx, login)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Compare password hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
