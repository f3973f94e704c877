package atmgo

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateAccountReq struct {
	Name           string `validate:"required"`
	PIN            string `validate:"required,len=4,number"`
	InitialBalance decimal.Decimal
}

type ChargeReq struct {
	AcctNum string `validate:"required"`
	Amount  decimal.Decimal
}

type TransferReq struct {
	FromAcct string `validate:"required"`
	ToAcct   string `validate:"required"`
	Amount   decimal.Decimal
	PIN      string
}

type ChangePinReq struct {
	AcctNum string `validate:"required"`
	OldPIN  string
	NewPIN  string
}

type StatementReq struct {
	AcctNum string `validate:"required"`
}

// Service is the ledger engine contract consumed by the terminal session
// controller. Amount-moving operations validate in a fixed order and either
// complete fully or leave no state behind.
type Service interface {
	CreateAccount(CreateAccountReq) (*Account, error)
	FindByCard(cardNum string) (string, error)
	GetAccount(acctNum string) (*Account, error)
	Accounts() []*Account
	VerifyPin(acctNum, pin string) bool
	Deposit(ChargeReq) (*decimal.Decimal, error)
	Withdraw(ChargeReq) (*decimal.Decimal, error)
	Transfer(TransferReq) error
	ChangePin(ChangePinReq) error
	Balance(acctNum string) (*decimal.Decimal, error)
	History(acctNum string) ([]Transaction, error)
	Statement(w io.Writer, req StatementReq) error
	CashAvailable() decimal.Decimal
}

type Option func(*serviceImpl)

// WithClock overrides the engine's wall clock. Daily-limit accounting keys
// on the clock's calendar date, so tests drive rollovers through this.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		s.now = now
	}
}

func WithMachineID(id string) Option {
	return func(s *serviceImpl) {
		s.machineID = id
	}
}

func NewService(store *AccountStore, reserve *CashReserve, log *zerolog.Logger, opts ...Option) (*serviceImpl, error) {
	if store == nil || reserve == nil {
		return nil, errors.New("service requires a store and a cash reserve")
	}
	svc := &serviceImpl{
		store:     store,
		reserve:   reserve,
		log:       log,
		now:       time.Now,
		machineID: "ATM001",
	}
	for _, o := range opts {
		o(svc)
	}
	store.now = svc.now
	return svc, nil
}

type serviceImpl struct {
	store     *AccountStore
	reserve   *CashReserve
	log       *zerolog.Logger
	now       func() time.Time
	machineID string
}

func (s *serviceImpl) CreateAccount(req CreateAccountReq) (*Account, error) {
	a, err := s.store.CreateAccount(req)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("acct", a.AcctNum).
		Str("balance", a.Balance.StringFixed(2)).
		Msg("account created")
	return a, nil
}

func (s *serviceImpl) FindByCard(cardNum string) (string, error) {
	return s.store.FindByCard(cardNum)
}

func (s *serviceImpl) GetAccount(acctNum string) (*Account, error) {
	return s.store.Get(acctNum)
}

func (s *serviceImpl) Accounts() []*Account {
	return s.store.Accounts()
}

// VerifyPin reports whether pin matches the stored one. Mutates nothing.
func (s *serviceImpl) VerifyPin(acctNum, pin string) bool {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	a, ok := s.store.accts[acctNum]
	return ok && a.PIN == pin
}

func (s *serviceImpl) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.store.accts[req.AcctNum]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(req.Amount)
	s.append(a, TxnDeposit, req.Amount)

	s.log.Info().
		Str("acct", a.AcctNum).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("deposit")
	bal := a.Balance
	return &bal, nil
}

// Withdraw debits the account and the machine's cash reserve. The check
// order is part of the contract: invalid amount, then funds, then the daily
// limit, then the reserve.
func (s *serviceImpl) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.store.accts[req.AcctNum]
	if !ok {
		return nil, ErrNotFound
	}

	rolloverDay(a, isoDate(s.now()))

	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Amount.GreaterThan(a.Balance) {
		return nil, ErrInsufficientFunds
	}
	if a.WithdrawnToday.Add(req.Amount).GreaterThan(a.DailyLimit) {
		return nil, ErrDailyLimitExceeded{Limit: a.DailyLimit}
	}
	if req.Amount.GreaterThan(s.reserve.Available()) {
		return nil, ErrInsufficientCash
	}

	a.Balance = a.Balance.Sub(req.Amount)
	a.WithdrawnToday = a.WithdrawnToday.Add(req.Amount)
	s.reserve.debit(req.Amount)
	s.append(a, TxnWithdrawal, req.Amount)

	s.log.Info().
		Str("acct", a.AcctNum).
		Str("amount", req.Amount.StringFixed(2)).
		Str("reserve", s.reserve.Available().StringFixed(2)).
		Msg("withdrawal")
	bal := a.Balance
	return &bal, nil
}

// Transfer debits the source and credits the destination in one critical
// section; a failure on any check leaves both accounts untouched.
func (s *serviceImpl) Transfer(req TransferReq) error {
	if req.FromAcct == req.ToAcct {
		return ErrSameAccount
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	from, ok := s.store.accts[req.FromAcct]
	if !ok {
		return ErrNotFound
	}
	to, ok := s.store.accts[req.ToAcct]
	if !ok {
		return ErrNotFound
	}
	if from.PIN != req.PIN {
		return ErrInvalidPin
	}
	if req.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if req.Amount.GreaterThan(from.Balance) {
		return ErrInsufficientFunds
	}

	from.Balance = from.Balance.Sub(req.Amount)
	s.append(from, TxnTransferOut, req.Amount)
	to.Balance = to.Balance.Add(req.Amount)
	s.append(to, TxnTransferIn, req.Amount)

	s.log.Info().
		Str("from", from.AcctNum).
		Str("to", to.AcctNum).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("transfer")
	return nil
}

func (s *serviceImpl) ChangePin(req ChangePinReq) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.store.accts[req.AcctNum]
	if !ok {
		return ErrNotFound
	}
	if a.PIN != req.OldPIN {
		return ErrInvalidPin
	}
	if !isPin(req.NewPIN) {
		return ErrPinFormat
	}

	a.PIN = req.NewPIN
	s.log.Info().Str("acct", a.AcctNum).Msg("PIN changed")
	return nil
}

func (s *serviceImpl) Balance(acctNum string) (*decimal.Decimal, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	a, ok := s.store.accts[acctNum]
	if !ok {
		return nil, ErrNotFound
	}
	bal := a.Balance
	return &bal, nil
}

func (s *serviceImpl) History(acctNum string) ([]Transaction, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	a, ok := s.store.accts[acctNum]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Transaction, len(a.Transactions))
	copy(out, a.Transactions)
	return out, nil
}

func (s *serviceImpl) CashAvailable() decimal.Decimal {
	return s.reserve.Available()
}

// append records a history entry for a. Caller holds the store lock and has
// already applied the balance change.
func (s *serviceImpl) append(a *Account, typ TxnType, amt decimal.Decimal) {
	a.Transactions = append(a.Transactions, Transaction{
		ID:           s.store.node.Generate(),
		Type:         typ,
		Amount:       amt,
		Timestamp:    s.now().Truncate(time.Second),
		BalanceAfter: a.Balance,
	})
}

// rolloverDay resets the daily withdrawal tally when the accounting date
// moves past LastWithdrawDate. Calendar-date equality, not elapsed time.
func rolloverDay(a *Account, today string) {
	if a.LastWithdrawDate != today {
		a.WithdrawnToday = decimal.Zero
		a.LastWithdrawDate = today
	}
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func isPin(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
