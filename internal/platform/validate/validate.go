// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package validate provides a chainable Validator that collects human-readable
// error messages before returning a single [apperr.AppError].
//
// # Architecture
//
// This package is used exclusively in the service layer — never in handlers or
// storage. It ensures that business logic only operates on semantically valid
// data, and that every failure path yields the full list of messages for form
// re-display rather than stopping at the first mistake.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inkpress/inkpress/internal/platform/apperr"
)

// ErrInvalidForm is returned when the request body cannot be decoded.
var ErrInvalidForm = apperr.ValidationError("Invalid form payload.", "The submitted form could not be read.")

// Validator collects validation error messages via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []string
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(label, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.Add(label + " is required.")
	}
	return v
}

// Email fails if the value is not a parseable email address.
func (v *Validator) Email(value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.Add("Please provide a valid email address.")
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(label, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.Add(fmt.Sprintf("%s must be at least %d characters long.", label, min))
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(label, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.Add(fmt.Sprintf("%s must be at most %d characters long.", label, max))
	}
	return v
}

// Match fails if the two values differ. Used for password confirmation;
// the check is skipped while either side is still empty so the Required
// rule reports first.
func (v *Validator) Match(value, confirmation, message string) *Validator {
	if value != "" && confirmation != "" && value != confirmation {
		v.Add(message)
	}
	return v
}

// Digits fails if the value is non-empty and contains anything but ASCII digits,
// or has the wrong length. Used for one-time verification codes.
func (v *Validator) Digits(label, value string, length int) *Validator {
	if value == "" {
		return v
	}
	if utf8.RuneCountInString(value) != length {
		v.Add(fmt.Sprintf("%s must be %d digits.", label, length))
		return v
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			v.Add(fmt.Sprintf("%s must contain digits only.", label))
			return v
		}
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(label, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.Add(fmt.Sprintf("%s must be one of: %s.", label, strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom(len(body) == 0, "Body is required.")
func (v *Validator) Custom(failed bool, message string) *Validator {
	if failed {
		v.Add(message)
	}
	return v
}

// Add appends a raw message to the collected list.
func (v *Validator) Add(message string) {
	v.errs = append(v.errs, message)
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed.", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Messages returns the messages collected so far.
func (v *Validator) Messages() []string {
	return v.errs
}
