package league

import "errors"

// Configuration errors. Both fail an invocation immediately, before any
// network or storage work starts.
var (
	ErrUnknownLeague = errors.New("unknown league")
	ErrInvalidRange  = errors.New("invalid season range")
)
