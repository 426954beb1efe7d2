package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndValidate(t *testing.T) {
	s := NewHMACService("access", "refresh", time.Minute, time.Hour)
	id := uuid.New()

	pair, err := s.Issue(id, "va@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := s.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if c.AccountID != id || c.Email != "va@example.com" {
		t.Fatalf("claims = %+v", c)
	}

	if _, err := s.ValidateToken(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
	if _, err := s.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	s := NewHMACService("access", "refresh", time.Minute, time.Hour)
	issued := time.Now()
	s.now = func() time.Time { return issued }

	pair, err := s.Issue(uuid.New(), "c@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := s.ValidateToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	a := NewHMACService("one", "r", time.Minute, time.Hour)
	b := NewHMACService("two", "r", time.Minute, time.Hour)

	pair, err := a.Issue(uuid.New(), "x@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.ValidateToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}
