package sync

import (
	"errors"
	"fmt"

	"github.com/uplora/uplora/internal/workflow"
)

// ErrEditLocked is returned when the content's status and the actor's role
// forbid field edits. No network call is made.
var ErrEditLocked = errors.New("content is locked for editing")

// ErrUnknownItem is returned when the store holds no state for the content id.
var ErrUnknownItem = errors.New("unknown content item")

// TransitionDeniedError is returned when the workflow gate rejects a
// transition. No network call is made and local state is unchanged.
type TransitionDeniedError struct {
	Action workflow.Action
	Reason string
}

func (e *TransitionDeniedError) Error() string {
	return fmt.Sprintf("transition %s denied: %s", e.Action, e.Reason)
}

// NetworkError wraps a transport failure. Local optimistic state and pending
// edits are preserved so the caller can retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is a transient transport failure
// worth retrying on the next save cycle.
func IsRetryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
