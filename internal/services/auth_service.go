package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

var ErrBadCreds = fail(ErrUnauthorized, "invalid email or password")

type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB       *sqlx.DB
	Secret   []byte
	TTL      time.Duration
	HashCost int // 0 means bcrypt.DefaultCost
	Now      func() time.Time
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a CUSTOMER or SELLER account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name, ok := validate.Name(in.Name, 60)
	if !ok {
		return nil, fail(ErrInvalidInput, "name is required (max 60 chars)")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, fail(ErrInvalidInput, "invalid email")
	}
	if !validate.Password(in.Password) {
		return nil, fail(ErrInvalidInput, "password must be 8-64 chars with upper, lower, digit and symbol")
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, fail(ErrInvalidInput, "invalid phone")
	}
	role := domain.RoleCustomer
	if in.Role != "" {
		r, ok := domain.ParseRole(strings.ToUpper(in.Role))
		if !ok || r == domain.RoleAdmin {
			return nil, fail(ErrInvalidInput, "role must be CUSTOMER or SELLER")
		}
		role = r
	}

	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Email: email, Name: name, Phone: phone, Hash: string(hash), Role: role}
	users := repos.NewUserRepo(s.DB)
	if err := users.Create(ctx, u); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fail(ErrConflict, "email already registered")
		}
		return nil, err
	}
	return users.ByID(ctx, u.ID)
}

// Login checks credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := repos.NewUserRepo(s.DB).ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrBadCreds
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	tok, err := s.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (s *AuthService) Issue(u *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseToken verifies signature and expiry.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, wrap(ErrUnauthorized, err, "invalid or expired token")
	}
	return &c, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repos.NewUserRepo(s.DB).ByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}
