package catalog

import "errors"

// Domain errors. Compared with errors.Is at call sites; causes are
// attached with fmt.Errorf("%w: ...", Err..., ...) style wrapping.
var (
	// ErrFetchExhausted means one partition of the source ran out of
	// retry budget. Fatal to the run; the scheduler retries whole runs.
	ErrFetchExhausted = errors.New("catalog fetch retry budget exhausted")

	// ErrSyncAborted means the replace transaction rolled back and the
	// previous catalog state is untouched.
	ErrSyncAborted = errors.New("catalog sync aborted")
)
