package service

import (
	"fmt"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates admin access tokens. The storefront's
// public chat endpoints stay open; only the admin dashboard routes sit
// behind these tokens.
type AuthService struct {
	passwordHash []byte // bcrypt hash of the admin password
	jwtSecret    []byte
	accessTTL    time.Duration
	logger       *zap.Logger
}

// NewAuthService creates the admin auth service. passwordHash must be a
// bcrypt hash; pass the output of HashPassword when only a plaintext dev
// password is configured.
func NewAuthService(passwordHash string, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		accessTTL:    accessTTL,
		logger:       logger,
	}
}

// HashPassword bcrypt-hashes a plaintext password (startup helper for the
// ADMIN_PASSWORD dev fallback).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// AdminClaims are the custom claims in admin access tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the admin password and returns a signed access token.
func (s *AuthService) Login(password string) (string, int, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Warn("admin login rejected")
		return "", 0, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := time.Now()
	claims := &AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("admin logged in")
	return token, int(s.accessTTL.Seconds()), nil
}

// ValidateAccessToken is used by the admin middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != "admin" {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	return claims, nil
}
