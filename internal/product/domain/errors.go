package domain

import (
	"errors"
	"sort"
)

var (
	ErrUnknownField = errors.New("unknown_field")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidID    = errors.New("invalid_id")
)

// FieldErrors maps a field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Set(field, message string) {
	if e == nil || field == "" {
		return
	}
	e[field] = message
}

// SetIfAbsent keeps the first message reported for a field.
func (e FieldErrors) SetIfAbsent(field, message string) {
	if e == nil || field == "" {
		return
	}
	if _, ok := e[field]; ok {
		return
	}
	e[field] = message
}

func (e FieldErrors) Get(field string) string {
	if e == nil {
		return ""
	}
	return e[field]
}

func (e FieldErrors) Has(field string) bool {
	if e == nil {
		return false
	}
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Merge copies every entry of other into e, overwriting existing fields.
func (e FieldErrors) Merge(other FieldErrors) {
	for field, message := range other {
		e.Set(field, message)
	}
}

func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Fields returns the field names in stable order.
func (e FieldErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
