package fault

import (
	"errors"
	"fmt"
)

// Code identifies a checkout failure class.
type Code string

const (
	CodeMenuNotFound        Code = "MENU_NOT_FOUND"
	CodeMenuNotAvailable    Code = "MENU_NOT_AVAILABLE"
	CodeMenuNotYetAvailable Code = "MENU_NOT_YET_AVAILABLE"
	CodeMenuExpired         Code = "MENU_EXPIRED"
	CodeSettingsNotFound    Code = "SETTINGS_NOT_FOUND"
	CodeDishNotFound        Code = "DISH_NOT_FOUND"
	CodeDishesUnavailable   Code = "DISHES_UNAVAILABLE"
	CodeInvalidQuantity     Code = "INVALID_QUANTITY"
	CodeMinOrderNotMet      Code = "MIN_ORDER_NOT_MET"
	CodeDeliveryNotEnabled  Code = "DELIVERY_NOT_ENABLED"
	CodeCouponRejected      Code = "COUPON_REJECTED"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeOrderTerminal       Code = "ORDER_ALREADY_TERMINAL"
	CodeOrderNotFound       Code = "ORDER_NOT_FOUND"
)

// Error is a validation or policy failure surfaced to the client.
// Infrastructure errors stay plain wrapped errors; only failures with a
// stable client-facing meaning get a Code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a coded failure.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Code == code
}

// ClientCorrectable reports whether the failure can be fixed by the
// client adjusting its request (vs. tenant misconfiguration or a system
// fault).
func (e *Error) ClientCorrectable() bool {
	return e.Code != CodeSettingsNotFound
}
