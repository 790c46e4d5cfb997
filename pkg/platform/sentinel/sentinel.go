package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrAlreadyExists: a unique key (active NDA per buyer, DD project per deal) is taken
//   - ErrStaleState: a conditional update found the row but not in the expected state
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStaleState    = errors.New("stale state")
	ErrUnavailable   = errors.New("unavailable")
)
