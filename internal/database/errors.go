package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"log"

	"github.com/DanielPPerez/API-Estancia2/internal/types"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TranslateError maps a storage error onto the error taxonomy. Errors that
// are already CustomErrors pass through unchanged.
func TranslateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := types.AsCustomError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.NotFound("Record not found.", op).WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Conflict("Record already exists.", op).WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return types.Conflict("Record is referenced by other data.", op).WithCause(err)
	case IsTransient(err):
		log.Printf("Transient database error in %s: %v", op, err)
		return types.Unavailable("The database is temporarily unavailable, please retry.", op).WithCause(err)
	}

	log.Printf("Database error in %s: %v", op, err)
	return types.Internal("An internal error occurred.", op).WithCause(err)
}

// IsTransient reports errors a caller may retry: timeouts, dropped
// connections, pool exhaustion, lock waits and deadlocks.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "53300", "57014":
			return true
		}
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1205, 1213:
			return true
		}
	}

	return false
}
