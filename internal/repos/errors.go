package repos

import "errors"

// ErrConflict is returned when a mutation loses a race against a concurrent
// writer, e.g. two visitors grabbing the same (spot, day). The transaction
// for that step aborts; callers surface it as a generic failure.
var ErrConflict = errors.New("conflicting concurrent update")
