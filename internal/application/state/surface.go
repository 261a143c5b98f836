package state

import (
	"context"
	"errors"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// Surface shows the notices for err. Session expiry is announced once by the
// session itself and cancellation means the caller went away, so neither is
// repeated here.
func Surface(n ports.Notifier, err error) {
	if err == nil || n == nil {
		return
	}
	if Quiet(err) {
		return
	}
	for _, msg := range domerrors.Messages(err) {
		n.Error(msg)
	}
}

// Quiet reports whether err needs no notice of its own.
func Quiet(err error) bool {
	return errors.Is(err, domerrors.ErrSessionExpired) || errors.Is(err, context.Canceled)
}

// Succeed shows a success notice when a notifier is configured.
func Succeed(n ports.Notifier, msg string) {
	if n != nil {
		n.Success(msg)
	}
}
