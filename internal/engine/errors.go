package engine

import (
	"errors"
	"fmt"
	"net/http"

	"auditline/internal/engine/auth"
	"auditline/internal/repo"
)

// Kind classifies engine errors.
type Kind string

const (
	KindValidation       Kind = "validation_failed"
	KindForbidden        Kind = "forbidden"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUpstream         Kind = "upstream_unavailable"
	KindInternal         Kind = "internal_error"
)

// Status returns the HTTP status the kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a rejected operation. Location and Name point at the offending
// part of the request; Description is a string or a nested field map.
type Error struct {
	Kind        Kind
	Location    string
	Name        string
	Description any
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s.%s: %v", e.Kind, e.Location, e.Name, e.Description)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

const fieldRequired = "This field is required."

func invalid(name string, description any) *Error {
	return &Error{Kind: KindValidation, Location: "body", Name: name, Description: description}
}

func required(name string) *Error {
	return invalid(name, fieldRequired)
}

func forbidden(name string, description any) *Error {
	return &Error{Kind: KindForbidden, Location: "body", Name: name, Description: description}
}

func forbiddenURL(name string, description any) *Error {
	return &Error{Kind: KindForbidden, Location: "url", Name: name, Description: description}
}

func notFound(id string) *Error {
	return &Error{Kind: KindNotFound, Location: "url", Name: "monitoring_id", Description: "Not Found", Err: fmt.Errorf("monitoring %s: %w", id, repo.ErrNotFound)}
}

// KindOf classifies any error the engine or its collaborators return.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return KindForbidden
	}
	var mna auth.MethodNotAllowedError
	if errors.As(err, &mna) {
		return KindMethodNotAllowed
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return KindNotFound
	case errors.Is(err, repo.ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// AsError converts err into an *Error, filling location data for errors
// raised outside the engine.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return &Error{Kind: KindForbidden, Location: "url", Name: "permission", Description: "Forbidden", Err: err}
	}
	var mna auth.MethodNotAllowedError
	if errors.As(err, &mna) {
		return &Error{Kind: KindMethodNotAllowed, Location: "request", Name: "method", Description: "Method not allowed", Err: err}
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return &Error{Kind: KindNotFound, Location: "url", Name: "monitoring_id", Description: "Not Found", Err: err}
	case errors.Is(err, repo.ErrConflict):
		return &Error{Kind: KindConflict, Location: "body", Name: "data", Description: "Monitoring was modified concurrently, retry the request.", Err: err}
	}
	return &Error{Kind: KindInternal, Location: "body", Name: "data", Description: "Internal error", Err: err}
}
