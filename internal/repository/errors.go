// Package repository defines error types that are reused across
// multiple repositories. These sentinel values let handlers distinguish
// failure scenarios without inspecting driver errors.
//
// ErrNotFound deliberately merges "row does not exist" with "row belongs
// to another tenant": every scoped query filters by tenant_id, so a
// foreign-tenant probe is indistinguishable from a miss and cannot be
// used to enumerate other shops' data.
package repository

import "errors"

// ErrNotFound is returned when an entity is absent or tenant-mismatched.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot proceed because of
// conflicting state, such as a status guard matching zero rows or a
// point balance that would go negative. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
