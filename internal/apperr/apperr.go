// Package apperr defines the closed set of error kinds returned by the core
// storefront operations. Handlers and tests branch on Kind; Message is the
// human-readable text shown by the UI layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidQuantity          Kind = "invalid_quantity"
	KindEmptyCart                Kind = "empty_cart"
	KindAmountMismatch           Kind = "amount_mismatch"
	KindProductNotFound          Kind = "product_not_found"
	KindNotFound                 Kind = "not_found"
	KindProductInactive          Kind = "product_inactive"
	KindInsufficientStock        Kind = "insufficient_stock"
	KindAlreadyPaid              Kind = "already_paid"
	KindOrderItemsCreationFailed Kind = "order_items_creation_failed"
	KindInvalidStatusTransition  Kind = "invalid_status_transition"
	KindInternal                 Kind = "internal"
)

// Error carries a machine-readable kind plus optional business context.
// Product/Available/Requested are populated for stock conflicts so callers
// can self-correct without parsing the message.
type Error struct {
	Kind    Kind
	Message string

	Product   string
	Available int
	Requested int
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Internal is the generic kind for unexpected infrastructure failures. The
// underlying cause is logged at the call site, never exposed to the caller.
func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// KindOf returns the kind of err, KindInternal for any non-nil error that is
// not an *Error, and the empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
