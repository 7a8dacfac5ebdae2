package persistence

import (
	"github.com/spec-kit/timebank/internal/repository"
	"github.com/spec-kit/timebank/internal/repository/memory"
)

// NewStore returns the Postgres-backed store when a pool is open, otherwise an
// in-memory store whose contents are lost on exit.
func NewStore(pg *Postgres) repository.Store {
	if pg.Enabled() {
		return repository.NewPostgresStore(pg.Pool)
	}
	return memory.New()
}
