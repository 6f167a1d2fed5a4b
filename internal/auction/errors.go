package auction

import "errors"

// ErrInvalidConfig is returned when a start command carries timing parameters
// that violate initialTime > 0 or 0 <= snipeTime < initialTime.
var ErrInvalidConfig = errors.New("invalid auction config")

// ErrInvalidTransition is returned when a command is not legal in the room's
// current state. Callers drop the command and log; it is never fatal.
var ErrInvalidTransition = errors.New("invalid state transition")
