package client

import (
	"context"
	"errors"
	"net"

	"smokegomodule/internal/types"
)

// ErrorKind classifies an error returned by a Session call
func ErrorKind(err error) types.ErrorKind {
	if err == nil {
		return types.ErrorKindNone
	}
	if errors.Is(err, context.Canceled) {
		return types.ErrorKindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.ErrorKindTimeout
	}
	return types.ErrorKindTransport
}
