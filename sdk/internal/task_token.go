package internal

import (
	"context"
)

// ActivationToken is one received activation frame plus the acknowledgement
// callbacks of the message that carried it.
type ActivationToken struct {
	TaskToken []byte
	Frame     []byte
	Ack       func(context.Context) error
	Nak       func(context.Context) error
	Term      func(context.Context) error
}
