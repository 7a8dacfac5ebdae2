package auth_test

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newAuthenticator(t *testing.T) (*auth.TokenAuthenticator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return auth.NewTokenAuthenticator(memory.New(), 30*time.Minute, nil, auth.WithClock(clock.Now)), clock
}

func TestIssueThenValidate(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()

	tok, err := a.Issue(ctx, "stu001", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := a.Validate(ctx, tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got == nil {
		t.Fatal("expected token to validate right after issue")
	}
	if got.UserID != "stu001" || got.UserType != domain.UserTypeStudent {
		t.Fatalf("unexpected owner %s/%s", got.UserID, got.UserType)
	}
}

func TestIssuedTokenIsURLSafeWithoutPadding(t *testing.T) {
	a, _ := newAuthenticator(t)

	tok, err := a.Issue(context.Background(), "sta001", domain.UserTypeStaff)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.ContainsAny(tok, "=+/") {
		t.Fatalf("token %q is not raw url-safe base64", tok)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 random bytes, got %d", len(raw))
	}
}

func TestSecondIssueRevokesFirst(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()

	first, err := a.Issue(ctx, "stu001", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := a.Issue(ctx, "stu001", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}

	if got, _ := a.Validate(ctx, first); got != nil {
		t.Fatal("first token must be revoked by the second login")
	}
	if got, _ := a.Validate(ctx, second); got == nil {
		t.Fatal("second token must be valid")
	}
}

func TestIssueKeepsOtherUsersSessions(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()

	studentTok, _ := a.Issue(ctx, "u1", domain.UserTypeStudent)
	staffTok, _ := a.Issue(ctx, "u1", domain.UserTypeStaff)
	otherTok, _ := a.Issue(ctx, "u2", domain.UserTypeStudent)

	for name, tok := range map[string]string{"student": studentTok, "staff": staffTok, "other": otherTok} {
		if got, _ := a.Validate(ctx, tok); got == nil {
			t.Fatalf("%s token unexpectedly revoked", name)
		}
	}
}

func TestValidateAndRefreshSlidesExpiry(t *testing.T) {
	a, clock := newAuthenticator(t)
	ctx := context.Background()

	tok, err := a.Issue(ctx, "stu001", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(29*time.Minute + 59*time.Second)
	refreshed, err := a.ValidateAndRefresh(ctx, tok)
	if err != nil {
		t.Fatalf("ValidateAndRefresh: %v", err)
	}
	if refreshed == nil {
		t.Fatal("expected refresh before the window closes")
	}
	if want := clock.Now().Add(30 * time.Minute); !refreshed.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, refreshed.ExpiresAt)
	}

	stored, _ := a.Validate(ctx, tok)
	if stored == nil || !stored.ExpiresAt.Equal(refreshed.ExpiresAt) {
		t.Fatal("refreshed expiry was not persisted")
	}

	clock.Advance(30 * time.Minute)
	if got, err := a.ValidateAndRefresh(ctx, tok); err != nil || got != nil {
		t.Fatalf("expected token to expire exactly at the window edge, got %v, %v", got, err)
	}
	if got, _ := a.Validate(ctx, tok); got != nil {
		t.Fatal("expired token must stay inert")
	}
}

func TestValidateDoesNotExtend(t *testing.T) {
	a, clock := newAuthenticator(t)
	ctx := context.Background()

	tok, _ := a.Issue(ctx, "stu001", domain.UserTypeStudent)
	clock.Advance(20 * time.Minute)
	if got, _ := a.Validate(ctx, tok); got == nil {
		t.Fatal("expected valid token")
	}
	clock.Advance(10 * time.Minute)
	if got, _ := a.Validate(ctx, tok); got != nil {
		t.Fatal("Validate must not slide the expiry")
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()

	tok, _ := a.Issue(ctx, "sta001", domain.UserTypeStaff)
	if err := a.Invalidate(ctx, tok); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := a.Invalidate(ctx, tok); err != nil {
		t.Fatalf("second Invalidate: %v", err)
	}
	if err := a.Invalidate(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown Invalidate: %v", err)
	}
	if got, _ := a.Validate(ctx, tok); got != nil {
		t.Fatal("invalidated token still validates")
	}
}

func TestValidateUnknownToken(t *testing.T) {
	a, _ := newAuthenticator(t)
	for _, tok := range []string{"", "not-a-token"} {
		got, err := a.ValidateAndRefresh(context.Background(), tok)
		if err != nil || got != nil {
			t.Fatalf("ValidateAndRefresh(%q) = %v, %v; want nil, nil", tok, got, err)
		}
	}
}
