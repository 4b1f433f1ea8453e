package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	"eldcore/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Classify joins driver errors with the platform sentinel they represent so stores can
// test them with errors.Is. Unrecognised errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			return errors.Join(sentinel.ErrConflict, err)
		case isUnavailableClass(pqErr.Code.Class()):
			return errors.Join(sentinel.ErrUnavailable, err)
		}
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}

// isUnavailableClass covers connection exceptions, insufficient resources and operator intervention.
func isUnavailableClass(class pq.ErrorClass) bool {
	return class == "08" || class == "53" || class == "57"
}
