package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors returned by repositories. Handlers map these to HTTP
// status codes; everything else is a store failure surfaced as 500 with
// detail withheld from the client.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// translateError converts driver-level errors into repository sentinels.
// The database's unique constraints are the authoritative guard against
// check-then-insert races; pre-checks in handlers are an optimization only.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
