package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	pollster_errors "battle-pollster/pkg/errors"
)

// Kind classifies a failed backend call.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindServer          Kind = "server"
	KindNetwork         Kind = "network"
)

// Error is returned by every Client operation that fails.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the sentinel matching Kind plus the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return pollster_errors.ErrUnauthorized
	case KindValidation:
		return pollster_errors.ErrInvalidInput
	case KindNotFound:
		return pollster_errors.ErrNotFound
	case KindNetwork:
		return pollster_errors.ErrNetwork
	default:
		return pollster_errors.ErrUpstream
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthenticated
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}

func missingCSRF(op string) *Error {
	return &Error{
		Op:      op,
		Kind:    KindUnauthenticated,
		Message: "missing csrf token, sign in again",
		Err:     pollster_errors.ErrMissingCSRF,
	}
}

// statusError builds an Error from a non-2xx response body. The backend answers
// either {"message": "..."}, {"detail": "..."} or a map of field errors, possibly
// nested one level (poll_a_errors: {poll_A: [...]}).
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Kind: kindForStatus(status), Status: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}

	for _, key := range []string{"message", "detail"} {
		if v, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil {
				e.Message = s
			}
			delete(raw, key)
		}
	}

	fields := map[string][]string{}
	for key, v := range raw {
		collectFieldErrors(fields, key, v)
	}
	if len(fields) > 0 {
		e.Fields = fields
		if e.Message == "" {
			e.Message = firstFieldMessage(fields)
		}
	}
	return e
}

func collectFieldErrors(dst map[string][]string, key string, v json.RawMessage) {
	var list []string
	if json.Unmarshal(v, &list) == nil {
		if len(list) > 0 {
			dst[key] = list
		}
		return
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		dst[key] = []string{s}
		return
	}
	var nested map[string]json.RawMessage
	if json.Unmarshal(v, &nested) == nil {
		for k, nv := range nested {
			collectFieldErrors(dst, key+"."+k, nv)
		}
	}
}

func firstFieldMessage(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return fields[k][0]
		}
	}
	return ""
}
