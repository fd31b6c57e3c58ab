// Package store implements owner-scoped persistence for pantry and shopping
// records. Every targeted operation filters by record id and owner id in a
// single statement, so the ownership check and the mutation are one
// indivisible step with no separate load-then-check window.
package store

import "errors"

// ErrNotFound is returned when no record exists under the given id for the
// given owner. A record owned by someone else is reported identically, so
// callers cannot probe for other users' ids.
var ErrNotFound = errors.New("record not found")
