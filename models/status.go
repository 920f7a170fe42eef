package models

// GameStatus is the lifecycle state of a Game, stored as free text.
type GameStatus string

const (
	StatusPregame GameStatus = "PREGAME"
	StatusHosted  GameStatus = "HOSTED"
	StatusStarted GameStatus = "STARTED"
	StatusOver    GameStatus = "OVER"
	StatusAborted GameStatus = "ABORTED"
	StatusCancel  GameStatus = "CANCEL"
	StatusRehost  GameStatus = "REHOST"
	StatusTimeout GameStatus = "TIMEOUT"
)

// transitions lists every edge of the lifecycle. Anything missing is unreachable.
//
//	PREGAME => HOSTED => STARTED => OVER (score)
//	PREGAME => HOSTED => TIMEOUT (lobby timeout) => ABORTED
//	PREGAME => HOSTED => CANCEL (cancel) => ABORTED
//	PREGAME => REHOST (rehost) => PREGAME
var transitions = map[GameStatus][]GameStatus{
	StatusPregame: {StatusHosted, StatusCancel, StatusRehost},
	StatusHosted:  {StatusStarted, StatusTimeout, StatusCancel, StatusAborted},
	StatusStarted: {StatusOver, StatusTimeout, StatusCancel},
	StatusTimeout: {StatusAborted},
	StatusCancel:  {StatusAborted},
	StatusRehost:  {StatusPregame},
}

// CanTransition reports whether to is a legal next state.
func (s GameStatus) CanTransition(to GameStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Closed reports whether the game can no longer be scored or cancelled.
func (s GameStatus) Closed() bool {
	return s == StatusOver || s == StatusAborted
}

// Valid reports whether s is a known status.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusPregame, StatusHosted, StatusStarted, StatusOver,
		StatusAborted, StatusCancel, StatusRehost, StatusTimeout:
		return true
	}
	return false
}
