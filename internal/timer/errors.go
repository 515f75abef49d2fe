package timer

import "errors"

// ErrInvalidTransition indicates a command that is not valid for the
// current status, e.g. pausing an idle timer. State is left unchanged.
var ErrInvalidTransition = errors.New("invalid timer transition")

// ErrConfiguration indicates a rejected configuration update. The prior
// configuration stays active.
var ErrConfiguration = errors.New("invalid timer configuration")
