package atmgo

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	_ Service = (*validationMiddleware)(nil)
)

type Middleware func(Service) Service

// validationMiddleware rejects malformed requests before they reach the
// engine. It only checks shape (required fields, PIN digit format on
// create); amount sign and PIN correctness stay in the engine because their
// failure order is part of the engine's contract.
type validationMiddleware struct {
	next     Service
	validate *validator.Validate
}

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{
			next:     svc,
			validate: validator.New(),
		}
	}
}

func (v *validationMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	if err := v.validate.Struct(req); err != nil {
		return nil, badRequest(err)
	}
	return v.next.CreateAccount(req)
}

func (v *validationMiddleware) FindByCard(cardNum string) (string, error) {
	if err := v.validate.Var(cardNum, "required,len=16,number"); err != nil {
		return "", badRequest(err)
	}
	return v.next.FindByCard(cardNum)
}

func (v *validationMiddleware) GetAccount(acctNum string) (*Account, error) {
	return v.next.GetAccount(acctNum)
}

func (v *validationMiddleware) Accounts() []*Account {
	return v.next.Accounts()
}

func (v *validationMiddleware) VerifyPin(acctNum, pin string) bool {
	return v.next.VerifyPin(acctNum, pin)
}

func (v *validationMiddleware) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	if err := v.validate.Struct(req); err != nil {
		return nil, badRequest(err)
	}
	return v.next.Deposit(req)
}

func (v *validationMiddleware) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	if err := v.validate.Struct(req); err != nil {
		return nil, badRequest(err)
	}
	return v.next.Withdraw(req)
}

func (v *validationMiddleware) Transfer(req TransferReq) error {
	if err := v.validate.Struct(req); err != nil {
		return badRequest(err)
	}
	return v.next.Transfer(req)
}

func (v *validationMiddleware) ChangePin(req ChangePinReq) error {
	if err := v.validate.Struct(req); err != nil {
		return badRequest(err)
	}
	return v.next.ChangePin(req)
}

func (v *validationMiddleware) Balance(acctNum string) (*decimal.Decimal, error) {
	return v.next.Balance(acctNum)
}

func (v *validationMiddleware) History(acctNum string) ([]Transaction, error) {
	return v.next.History(acctNum)
}

func (v *validationMiddleware) Statement(w io.Writer, req StatementReq) error {
	if err := v.validate.Struct(req); err != nil {
		return badRequest(err)
	}
	return v.next.Statement(w, req)
}

func (v *validationMiddleware) CashAvailable() decimal.Decimal {
	return v.next.CashAvailable()
}

func badRequest(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	flds := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		flds[fe.Field()] = fe.Tag()
	}
	return ErrBadRequest{Fields: flds}
}
