package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/config"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// ErrMailDelivery marks a failure in the outbound mail hop; the sign-in
// code was stored but never reached the user.
var ErrMailDelivery = errors.New("mail delivery failed")

// Claims represents the JWT claims. Email is the verified caller
// identity every authorization decision derives from.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService implements the email-code exchange: signup stores a hashed
// one-time code, signin verifies it and issues a bearer token.
type AuthService struct {
	userRepo  ports.UserRepository
	mailer    ports.Mailer
	jwtConfig config.JWTConfig
	codeTTL   time.Duration
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, mailer ports.Mailer, jwtConfig config.JWTConfig, codeTTL time.Duration, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		mailer:    mailer,
		jwtConfig: jwtConfig,
		codeTTL:   codeTTL,
		logger:    logger,
	}
}

func makeCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Signup stores a bcrypt-hashed sign-in code on the user document and
// hands the plaintext to the mailer. The code expires after the
// configured TTL.
func (s *AuthService) Signup(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email is required: %w", entities.ErrInvalidInput)
	}

	code, err := makeCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	id := entities.UserIDFromEmail(email)
	now := time.Now().UTC()
	expires := now.Add(s.codeTTL)

	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, entities.ErrUserNotFound) {
		user = &entities.User{ID: id, Email: email, CreatedAt: now}
	} else if err != nil {
		return err
	}
	user.CodeHash = string(hash)
	user.CodeExpiresAt = &expires
	user.UpdatedAt = &now

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to store sign-in code: %w", err)
	}

	body := fmt.Sprintf("Your sign-in code: %s (expires in %d minutes)", code, int(s.codeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Your sign-in code", body); err != nil {
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	s.logger.Infow("Sign-in code issued", "user", id)

	return nil
}

// Signin verifies the one-time code, clears it and issues a bearer token
// carrying the verified email.
func (s *AuthService) Signin(ctx context.Context, email, code string) (string, error) {
	id := entities.UserIDFromEmail(email)

	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, entities.ErrUserNotFound) {
		return "", fmt.Errorf("no pending sign-in code: %w", entities.ErrInvalidInput)
	} else if err != nil {
		return "", err
	}

	if user.CodeHash == "" || user.CodeExpiresAt == nil {
		return "", fmt.Errorf("no pending sign-in code: %w", entities.ErrInvalidInput)
	}
	if time.Now().After(*user.CodeExpiresAt) {
		return "", fmt.Errorf("sign-in code expired: %w", entities.ErrInvalidInput)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.CodeHash), []byte(code)) != nil {
		s.logger.Warnw("Sign-in attempt with wrong code", "user", id)
		return "", fmt.Errorf("wrong sign-in code: %w", entities.ErrInvalidInput)
	}

	now := time.Now().UTC()
	user.CodeHash = ""
	user.CodeExpiresAt = nil
	user.LastSignIn = &now
	user.UpdatedAt = &now
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return "", fmt.Errorf("failed to clear sign-in code: %w", err)
	}

	token, err := s.generateToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Infow("User signed in", "user", id)

	return token, nil
}

func (s *AuthService) generateToken(email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
