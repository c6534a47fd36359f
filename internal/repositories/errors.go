package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolation = pq.ErrorCode("23505")

// mapError translates driver errors into the package sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errors.Join(ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Join(ErrDuplicate, err)
	}

	return err
}
