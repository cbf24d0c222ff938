package membership

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role of an account
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "entrenador"
	RoleClient  Role = "cliente"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleClient:
		return true
	}
	return false
}

// BcryptCost is the work factor for password hashes. Tests lower it.
var BcryptCost = 10

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Account is a login (the usuario row). Clients and trainers share its id.
type Account struct {
	shared.Audited
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
}

// NewAccount validates credentials and hashes the password
func NewAccount(username, email, password string, role Role) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Account{
		Audited:      shared.Audited{Versioned: shared.NewVersioned(uuid.New())},
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// Deactivate disables the login
func (a *Account) Deactivate() {
	a.Active = false
	a.Bump()
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, dots, underscores and hyphens")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 100 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 100 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	return nil
}

// Trainer is a staff member clients may be assigned to (entrenador)
type Trainer struct {
	ID             uuid.UUID
	DNI            string
	Name           string
	Surname        string
	Phone          string
	Specialization string
	Bio            string
	CurrentClients int
	AverageRating  float64
	Available      bool
	HiredAt        time.Time
}

// FullName is "Name Surname"
func (t *Trainer) FullName() string {
	return strings.TrimSpace(t.Name + " " + t.Surname)
}
