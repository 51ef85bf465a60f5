package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth/entity"
)

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrDisabled       = errors.New("user disabled")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
)

const minPasswordLen = 8

// Service handles signup and password login.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenIssuer) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Signup creates a user with password. Minimal required: username OR email, password.
func (s *Service) Signup(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return 0, fmt.Errorf("%w: username or email required", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return 0, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	u := &entity.User{PasswordHash: &hash, PasswordAlgo: &algo, Status: "active"}
	if username != "" {
		u.Username = &username
	}
	if email != "" {
		u.Email = &email
	}
	return s.users.Create(ctx, u)
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login authenticates by email or username and issues an access token.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Token, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBadCredentials
	}

	var u *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Status == "disabled" {
		return nil, ErrDisabled
	}
	if u.PasswordHash == nil || !s.hasher.Verify(*u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	p := entity.Principal{ID: u.ID}
	if u.Username != nil {
		p.Username = *u.Username
	}
	signed, ttl, err := s.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresIn: int64(ttl.Seconds())}, nil
}
