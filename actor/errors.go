package actor

import "errors"

// ErrHangup is the sentinel a waiting party may use to convert a
// Hangup/SharedHangup notification — a dependency's Shared handle
// reaching zero live clones, or a Future bound to an actor that has
// already transitioned to Closing/Closed — into an ordinary
// Promise[T] error.
var ErrHangup = errors.New("actor: hangup")
