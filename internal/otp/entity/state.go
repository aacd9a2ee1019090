package entity

import "time"

type State int

const (
	StateNoCode State = iota
	StateActiveCode
)

func (s State) String() string {
	switch s {
	case StateActiveCode:
		return "ACTIVE_CODE"
	default:
		return "NO_CODE"
	}
}

// StateOf reports the lifecycle state of an identity given its stored record,
// which may be nil.
func StateOf(o *OTP, now time.Time) State {
	if o == nil || o.IsExpired(now) {
		return StateNoCode
	}
	return StateActiveCode
}
