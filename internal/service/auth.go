package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

// Register creates a cashier account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, login, password, displayName string, role model.Role) (*model.Cashier, error) {
	if login == "" || password == "" {
		return nil, apperr.Validation("login", "login and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO cashiers (login, password_hash, display_name, role)
	          VALUES ($1, $2, $3, $4) RETURNING id, login, display_name, role, created_at`
	row := s.db.QueryRowContext(ctx, query, login, hash, displayName, role)

	var c model.Cashier
	if err := row.Scan(&c.ID, &c.Login, &c.DisplayName, &c.Role, &c.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, apperr.Validation("login", "login already exists")
		}
		return nil, fmt.Errorf("insert cashier: %w", err)
	}
	c.PasswordHash = hash

	return &c, nil
}

// Authenticate verifies a cashier login against the stored hash.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.Cashier, error) {
	query := `SELECT id, login, password_hash, display_name, role, created_at FROM cashiers WHERE login = $1`
	row := s.db.QueryRowContext(ctx, query, login)

	var c model.Cashier
	if err := row.Scan(&c.ID, &c.Login, &c.PasswordHash, &c.DisplayName, &c.Role, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get cashier: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &c, nil
}

// OTPProvider issues and checks one-time codes for customer phone
// sessions. A real SMS provider plugs in behind this interface.
type OTPProvider interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

var (
	ErrOTPMismatch = errors.New("otp code does not match")
	ErrOTPExpired  = errors.New("otp code expired")
)

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryOTP keeps issued codes in memory with a TTL. Codes are random,
// never accepted blindly, and single use.
type MemoryOTP struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]otpEntry
	now     func() time.Time
}

func NewMemoryOTP(ttl time.Duration) *MemoryOTP {
	return &MemoryOTP{
		ttl:     ttl,
		entries: make(map[string]otpEntry),
		now:     time.Now,
	}
}

func (m *MemoryOTP) Send(ctx context.Context, phone string) error {
	if phone == "" {
		return apperr.Validation("phone", "phone is required")
	}

	code, err := randomCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	m.mu.Lock()
	m.entries[phone] = otpEntry{code: code, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	// Delivery is stubbed to the log until an SMS provider is wired in.
	slog.Info("otp issued", "phone", phone, "code", code)
	return nil
}

func (m *MemoryOTP) Verify(ctx context.Context, phone, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[phone]
	if !ok || entry.code != code {
		return ErrOTPMismatch
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, phone)
		return ErrOTPExpired
	}

	delete(m.entries, phone)
	return nil
}

func randomCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	digits := make([]byte, 6)
	for i, v := range b {
		digits[i] = '0' + v%10
	}
	return string(digits), nil
}
