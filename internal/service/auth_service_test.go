package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthService_IssueParse(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)

	token, err := svc.IssueToken(" story-app ")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Caller != "story-app" || claims.Subject != "story-app" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
}

func TestAuthService_RejectsEmptySecret(t *testing.T) {
	svc := NewAuthService("", time.Hour)
	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if _, err := svc.IssueToken("app"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_RejectsEmptyCaller(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)
	if _, err := svc.IssueToken("   "); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_ParseFailures(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)
	now := time.Now().UTC()

	sign := func(t *testing.T, secret string, claims CallerClaims) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}
	valid := func() CallerClaims {
		return CallerClaims{
			Caller: "app",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "persona-engine",
				Subject:   "app",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			},
		}
	}

	t.Run("expired", func(t *testing.T) {
		c := valid()
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		if _, err := svc.ParseToken(sign(t, "secret", c)); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := svc.ParseToken(sign(t, "other", valid())); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := valid()
		c.Issuer = "someone-else"
		if _, err := svc.ParseToken(sign(t, "secret", c)); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("subject mismatch", func(t *testing.T) {
		c := valid()
		c.Subject = "other-app"
		if _, err := svc.ParseToken(sign(t, "secret", c)); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})
}
