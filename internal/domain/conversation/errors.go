package conversation

import "errors"

var (
	ErrMalformedPendingAction = errors.New("pending action must carry exactly the payload matching its kind")
	ErrNoPendingAction        = errors.New("no pending action for user")
)
