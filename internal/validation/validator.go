// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package validation checks roster write-back input with
// go-playground/validator v10. A single validator is shared process-wide and
// knows two extra tags:
//
//   - callsign: letters and digits with optional "/" portable affixes
//   - gridsquare: a Maidenhead locator the strict decoder accepts
//
// Failures come back as *Error, one FieldError per failed field:
//
//	type Entry struct {
//	    CallSign string `validate:"required,callsign"`
//	    Grid     string `validate:"omitempty,gridsquare"`
//	}
//
//	var verr *validation.Error
//	if errors.As(validation.ValidateStruct(&e), &verr) && verr.HasField("Grid") { ... }
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/netmirror/internal/geo"
)

var callSignPattern = regexp.MustCompile(`^[A-Za-z0-9]+(/[A-Za-z0-9]+)*$`)

// FieldError describes one failed field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error collects the field failures of one ValidateStruct call.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// HasField reports whether field is among the failures.
func (e *Error) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validator returns the shared validator, registering the custom tags on
// first use.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("callsign", func(fl validator.FieldLevel) bool {
		return callSignPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("gridsquare", func(fl validator.FieldLevel) bool {
		_, _, err := geo.DecodeStrict(fl.Field().String())
		return err == nil
	})
	return v
})

// ValidateStruct validates s and returns nil or an *Error.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: describe(fe),
		}
	}
	return out
}

// describe renders fe as a sentence naming the field.
func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind().String() == "string" {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "callsign":
		return field + " must be a call sign (letters, digits and / only)"
	case "gridsquare":
		return field + " must be a Maidenhead locator such as FN31 or FN31pr"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
