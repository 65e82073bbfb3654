// internal/store/postgres/store.go
package postgres

import (
	"context"
	stderrors "errors"

	"careescapes-workers/internal/common/database"
	"careescapes-workers/internal/common/errors"

	"github.com/lib/pq"
)

const (
	defaultSearchLimit = 5

	uniqueViolation = "23505"
)

// Store implements the user, clinic and booking collaborators against the
// CareEscapes PostgreSQL schema.
type Store struct {
	pg          *database.PostgresClient
	searchLimit int
}

func New(pg *database.PostgresClient, searchLimit int) *Store {
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}
	return &Store{pg: pg, searchLimit: searchLimit}
}

// Ping lets the store take part in readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx)
}

func mapQueryError(queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.NewDuplicateRecordError("User with this email already exists")
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}
