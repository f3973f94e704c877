package atmgo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrNegativeBalance   = errors.New("initial balance cannot be negative")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidPin        = errors.New("incorrect PIN")
	ErrPinFormat         = errors.New("PIN must be 4 digits")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientCash  = errors.New("ATM does not have enough cash")
	ErrAcctNumExhausted  = errors.New("account number space exhausted")
)

// ErrDailyLimitExceeded carries the account's limit so the message can echo
// it back to the cardholder.
type ErrDailyLimitExceeded struct {
	Limit decimal.Decimal
}

func (e ErrDailyLimitExceeded) Error() string {
	return fmt.Sprintf("daily withdrawal limit of $%s exceeded", e.Limit.StringFixed(2))
}

type ErrBadRequest struct {
	Fields map[string]string
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}
