// Package lifecycle models the bounded scopes that observers can be tied to.
package lifecycle

import "fmt"

// State is a step in an owner's lifetime. Later states compare greater,
// except Destroyed which is terminal and sorts first.
type State int

const (
	Destroyed State = iota
	Initialized
	Created
	Started
	Resumed
)

// IsAtLeast reports whether s is the same as or later than other.
func (s State) IsAtLeast(other State) bool {
	return s >= other
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return s >= Destroyed && s <= Resumed
}

func (s State) String() string {
	switch s {
	case Destroyed:
		return "destroyed"
	case Initialized:
		return "initialized"
	case Created:
		return "created"
	case Started:
		return "started"
	case Resumed:
		return "resumed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
