package services

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"league-orchestrator/store"
)

const transitionLostMsg = "status transition lost the race"

var (
	// ErrResourceExhausted means no free bot was available to host a game.
	ErrResourceExhausted = eris.New("no free bot available")
	// ErrRejected marks a user-visible refusal. The message carries the reason.
	ErrRejected = eris.New("rejected")
	// ErrTransitionLost means another writer changed the game status first.
	ErrTransitionLost = eris.Wrap(store.ErrNoRowsModified, transitionLostMsg)
	// ErrOutOfTurn is matched by every *TurnError.
	ErrOutOfTurn = eris.New("not your turn")
)

// transitionLost returns a new error matching ErrTransitionLost. Wrapping the
// shared sentinel itself would append to its stack on every call.
func transitionLost(format string, args ...interface{}) error {
	return eris.Wrapf(eris.Wrap(store.ErrNoRowsModified, transitionLostMsg), format, args...)
}

// Rejection is a refusal the caller should show to the user verbatim.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func (r *Rejection) Is(target error) bool { return target == ErrRejected }

func reject(format string, args ...interface{}) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// TurnError is returned when someone other than the current drafter acts.
type TurnError struct {
	Expected string // discord id of the drafter whose turn it is
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("it is <@%s>'s turn to pick", e.Expected)
}

func (e *TurnError) Is(target error) bool { return target == ErrOutOfTurn }

// RejectionReason extracts the user-facing reason, if err is a rejection.
func RejectionReason(err error) (string, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
