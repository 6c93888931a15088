package postgres

import (
	"errors"

	"github.com/NordCoder/Tasker/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = repository.ErrNotFound
	ErrConflict   = repository.ErrConflict
	ErrConstraint = repository.ErrConstraint
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// mapPgErr translates constraint violations into package errors.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return ErrConflict
	case codeForeignKeyViolation:
		return ErrConstraint
	}
	return err
}
