package kapytal

import (
	"errors"
	"fmt"
)

// ValidationError reports an invariant violated by a proposed mutation.
// The ledger is left untouched when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ReferentialIntegrityError reports a delete or modification of an entity
// that is still referenced by at least one transaction or child entity.
type ReferentialIntegrityError struct {
	Entity string // entity kind, e.g. "category"
	Name   string // path, name or code of the entity
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %q is still referenced", e.Entity, e.Name)
}

// CurrencyMismatchError reports arithmetic between two incompatible
// currencies. Inside the core this is a programming error: validated
// construction guarantees it never happens, so Money operations panic with
// this error rather than silently truncating.
type CurrencyMismatchError struct {
	A, B string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s != %s", e.A, e.B)
}

// NoRateAvailableError reports that no conversion path exists between two
// currencies on a given date. Reports degrade gracefully when they see it.
type NoRateAvailableError struct {
	From, To string
	Day      Date
}

func (e *NoRateAvailableError) Error() string {
	return fmt.Sprintf("no exchange rate from %s to %s on %s", e.From, e.To, e.Day)
}

// NoPriceAvailableError reports that a held security has no price observation
// on or before a valuation date. Like a missing exchange rate, reports treat
// the affected value as unavailable rather than zero.
type NoPriceAvailableError struct {
	Security string
	Day      Date
}

func (e *NoPriceAvailableError) Error() string {
	return fmt.Sprintf("no price for security %q on %s", e.Security, e.Day)
}

// isMissingMarketData reports whether err stems from a missing conversion
// path or a missing security price.
func isMissingMarketData(err error) bool {
	var nre *NoRateAvailableError
	var npe *NoPriceAvailableError
	return errors.As(err, &nre) || errors.As(err, &npe)
}

// NotFoundError reports a reference to a nonexistent entity.
type NotFoundError struct {
	Kind string // e.g. "account", "transaction"
	Key  string // UUID, path or name used for the lookup
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}
