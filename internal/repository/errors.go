package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/qa-forum-api/internal/apperrors"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate key")

	// ErrNotFound is returned when an update or delete matched no row
	ErrNotFound = errors.New("record not found")
)

// Classify maps driver errors onto the repository and application taxonomy.
// Retryable failures become apperrors Transient; unique violations wrap ErrDuplicate.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return apperrors.Transient(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case code == "40001", code == "40P01":
			return apperrors.Transient(err)
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"), strings.HasPrefix(code, "57P0"):
			return apperrors.Transient(err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Transient(err)
	}
	return err
}

// requireRow turns a zero-row write into ErrNotFound
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
