package services

import (
	"sort"
	"strings"

	pollster_errors "battle-pollster/pkg/errors"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

func (f FieldErrors) Is(target error) bool {
	return target == pollster_errors.ErrInvalidInput
}

// Notice is a failure whose Message is meant for the user as is.
type Notice struct {
	Message string
	Err     error
}

func (n *Notice) Error() string {
	if n.Err == nil {
		return n.Message
	}
	return n.Message + ": " + n.Err.Error()
}

func (n *Notice) Unwrap() error { return n.Err }
