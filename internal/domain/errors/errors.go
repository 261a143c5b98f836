package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// GenericMessage is shown for any failure that carries no field detail.
const GenericMessage = "Something went wrong, please try again."

// Sentinel errors for state operations.
var (
	ErrSessionExpired       = errors.New("session expired, please log in again")
	ErrInvalidCredentials   = errors.New("invalid login details")
	ErrNoActiveOrganization = errors.New("no active organization")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrBusy                 = errors.New("operation already in progress")
)

// FieldErrors maps a field name to its validation messages. The server and
// client-side validation both produce it so notices look the same.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Error implements error.
func (f FieldErrors) Error() string {
	return "validation failed: " + strings.Join(f.Messages(), "; ")
}

// Messages returns one "Field: message" line per message, ordered by field.
func (f FieldErrors) Messages() []string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	out := make([]string, 0, len(f))
	for _, field := range fields {
		for _, msg := range f[field] {
			out = append(out, fmt.Sprintf("%s: %s", Humanize(field), msg))
		}
	}
	return out
}

// Humanize upper-cases the first letter of a field name.
func Humanize(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// Messages returns the notices to show for err.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var fe FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return fe.Messages()
	}
	return []string{GenericMessage}
}
