package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/google/uuid"
)

func authCfg(secret string, ttl time.Duration) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: secret, TTL: ttl},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := service.NewAuthService(authCfg("test-secret-abcdefghijklmnop", 15*time.Minute))
	account := uuid.New()

	token, err := svc.IssueToken(account)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	got, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != account {
		t.Fatalf("ParseToken = %s, want %s", got, account)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := service.NewAuthService(authCfg("secret-one-abcdefghijklmnop", 15*time.Minute))
	verifier := service.NewAuthService(authCfg("secret-two-abcdefghijklmnop", 15*time.Minute))

	token, err := issuer.IssueToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := verifier.ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("wrong secret: got %v, want ErrTokenInvalid", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	svc := service.NewAuthService(authCfg("test-secret-abcdefghijklmnop", -time.Minute))

	token, err := svc.IssueToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expired: got %v, want ErrTokenInvalid", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	svc := service.NewAuthService(authCfg("test-secret-abcdefghijklmnop", 15*time.Minute))
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.ParseToken(tok); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("garbage %q: got %v, want ErrTokenInvalid", tok, err)
		}
	}
}
