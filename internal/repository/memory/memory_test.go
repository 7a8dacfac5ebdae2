package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := store.WithTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Events.Create(ctx, &domain.Event{Type: domain.EventTypePending}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx = %v", err)
	}
	if n := len(store.Events()); n != 0 {
		t.Fatalf("expected rollback, got %d events", n)
	}
}

func TestRollbackKeepsConcurrentStandaloneWrites(t *testing.T) {
	store := New()
	ctx := context.Background()
	tok := &domain.Token{Token: "tok", UserID: "s1", UserType: domain.UserTypeStudent, ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Repos().Tokens.Create(ctx, tok); err != nil {
		t.Fatalf("create token: %v", err)
	}

	opened := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.WithTx(ctx, func(repos repository.Repositories) error {
			if err := repos.Events.Create(ctx, &domain.Event{Type: domain.EventTypePending}); err != nil {
				return err
			}
			close(opened)
			<-release
			return errors.New("rolled back")
		})
	}()
	<-opened

	deleted := make(chan error, 1)
	go func() {
		_, err := store.Repos().Tokens.DeleteByToken(ctx, "tok")
		deleted <- err
	}()

	select {
	case err := <-deleted:
		t.Fatalf("standalone delete ran inside an open transaction: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-txDone; err == nil {
		t.Fatal("expected transaction error")
	}
	if err := <-deleted; err != nil {
		t.Fatalf("DeleteByToken: %v", err)
	}

	if _, err := store.Repos().Tokens.GetByToken(ctx, "tok"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted token came back after rollback: %v", err)
	}
	if n := len(store.Events()); n != 0 {
		t.Fatalf("expected rolled back event log, got %d events", n)
	}
}
