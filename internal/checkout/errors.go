package checkout

import "fmt"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthorization
	KindConflict
	KindIntegrity
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindIntegrity:
		return "integrity"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a classified failure of an engine operation. Msg is safe to show to clients;
// Err carries the detail for logs.
type Error struct {
	Kind Kind
	Code string
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Code
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrEmptyOrder           = &Error{Kind: KindValidation, Code: "empty_order", Msg: "no order items"}
	ErrInvalidOrder         = &Error{Kind: KindValidation, Code: "invalid_order", Msg: "invalid order"}
	ErrTotalsMismatch       = &Error{Kind: KindValidation, Code: "totals_mismatch", Msg: "order total does not match its items, tax and shipping"}
	ErrInvalidReference     = &Error{Kind: KindValidation, Code: "invalid_reference", Msg: "transaction reference is invalid"}
	ErrPaymentNotSuccessful = &Error{Kind: KindValidation, Code: "payment_not_successful", Msg: "payment not successful"}
	ErrInvalidWebhook       = &Error{Kind: KindValidation, Code: "invalid_webhook", Msg: "malformed webhook payload"}
	ErrInvalidStatus        = &Error{Kind: KindValidation, Code: "invalid_status", Msg: "invalid order status"}

	ErrOrderNotFound = &Error{Kind: KindNotFound, Code: "order_not_found", Msg: "order not found"}
	ErrUserNotFound  = &Error{Kind: KindNotFound, Code: "user_not_found", Msg: "user not found"}

	ErrNotOwner         = &Error{Kind: KindAuthorization, Code: "not_owner", Msg: "not authorized to access this order"}
	ErrInvalidSignature = &Error{Kind: KindAuthorization, Code: "invalid_signature", Msg: "unauthorized"}

	ErrAlreadyPaid       = &Error{Kind: KindConflict, Code: "already_paid", Msg: "order already paid"}
	ErrNotPayable        = &Error{Kind: KindConflict, Code: "not_payable", Msg: "order can no longer be paid"}
	ErrInvalidTransition = &Error{Kind: KindConflict, Code: "invalid_transition", Msg: "order status change not allowed"}

	ErrAmountMismatch = &Error{Kind: KindIntegrity, Code: "amount_mismatch", Msg: "payment could not be confirmed"}
	ErrOrderMismatch  = &Error{Kind: KindIntegrity, Code: "order_mismatch", Msg: "payment could not be confirmed"}

	ErrGatewayVerification = &Error{Kind: KindUpstream, Code: "gateway_unavailable", Msg: "payment gateway unavailable, try again later"}
)

func fail(op string, sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Op: op, Msg: sentinel.Msg, Err: cause}
}

// failf is fail with a client message more specific than the sentinel's.
func failf(op string, sentinel *Error, format string, args ...any) *Error {
	e := fail(op, sentinel, nil)
	e.Msg = fmt.Sprintf(format, args...)
	return e
}
