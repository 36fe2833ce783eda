package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/config"
	"github.com/boardstack/core/internal/infrastructure/logger"
)

func newAuthFixture(mailer *fakeMailer) (*AuthService, *fakeStore) {
	store := newFakeStore()
	jwtCfg := config.JWTConfig{Secret: "test-secret", ExpiresIn: 168 * time.Hour, Issuer: "test"}
	svc := NewAuthService(&fakeUserRepo{store}, mailer, jwtCfg, 15*time.Minute, logger.NewNop())
	return svc, store
}

// codeFromBody pulls the plaintext code out of the mail body.
func codeFromBody(t *testing.T, body string) string {
	t.Helper()
	fields := strings.Fields(body)
	for i, f := range fields {
		if f == "code:" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	t.Fatalf("no code in mail body %q", body)
	return ""
}

func TestSignupStoresHashedCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := newAuthFixture(mailer)
	ctx := context.Background()

	if err := svc.Signup(ctx, "Alice@X.IO"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	user := store.users[entities.UserIDFromEmail("alice@x.io")]
	if user == nil {
		t.Fatalf("user document not created")
	}
	if user.CodeHash == "" || user.CodeExpiresAt == nil {
		t.Fatalf("code hash and expiry should be set")
	}

	code := codeFromBody(t, mailer.bodies[0])
	if len(code) != 6 {
		t.Fatalf("code %q should be six digits", code)
	}
	if strings.Contains(user.CodeHash, code) {
		t.Fatalf("plaintext code must never be stored")
	}
}

func TestSignupRejectsBadEmail(t *testing.T) {
	svc, _ := newAuthFixture(&fakeMailer{})
	if err := svc.Signup(context.Background(), "not-an-email"); !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignupMailFailure(t *testing.T) {
	svc, _ := newAuthFixture(&fakeMailer{sendErr: errors.New("smtp down")})
	err := svc.Signup(context.Background(), "alice@x.io")
	if !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("err = %v, want ErrMailDelivery", err)
	}
}

func TestSigninRoundTrip(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := newAuthFixture(mailer)
	ctx := context.Background()

	if err := svc.Signup(ctx, "alice@x.io"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	code := codeFromBody(t, mailer.bodies[0])

	token, err := svc.Signin(ctx, "alice@x.io", code)
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "alice@x.io" {
		t.Fatalf("email claim = %q", claims.Email)
	}

	// The code is single-use.
	user := store.users[entities.UserIDFromEmail("alice@x.io")]
	if user.CodeHash != "" || user.CodeExpiresAt != nil {
		t.Fatalf("code should be cleared after sign-in")
	}
	if user.LastSignIn == nil {
		t.Fatalf("lastSignIn should be recorded")
	}

	if _, err := svc.Signin(ctx, "alice@x.io", code); !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("reused code err = %v, want ErrInvalidInput", err)
	}
}

func TestSigninWrongCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newAuthFixture(mailer)
	ctx := context.Background()

	if err := svc.Signup(ctx, "alice@x.io"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, err := svc.Signin(ctx, "alice@x.io", "000000"); !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSigninExpiredCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := newAuthFixture(mailer)
	ctx := context.Background()

	if err := svc.Signup(ctx, "alice@x.io"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	code := codeFromBody(t, mailer.bodies[0])

	past := time.Now().Add(-time.Minute)
	store.users[entities.UserIDFromEmail("alice@x.io")].CodeExpiresAt = &past

	if _, err := svc.Signin(ctx, "alice@x.io", code); !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(&fakeMailer{})
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Fatalf("garbage token should fail validation")
	}
}
