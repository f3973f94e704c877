package atmgo

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TxnType labels an entry in an account's transaction history.
type TxnType string

const (
	TxnDeposit     TxnType = "Deposit"
	TxnWithdrawal  TxnType = "Withdrawal"
	TxnTransferOut TxnType = "Transfer Out"
	TxnTransferIn  TxnType = "Transfer In"
)

// Transaction is an append-only history record. BalanceAfter snapshots the
// account balance immediately after the operation that produced it.
type Transaction struct {
	ID           snowflake.ID    `json:"id"`
	Type         TxnType         `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// Account is a bank account held by the store. AcctNum and CardNum are
// assigned at creation and never change; Balance never goes negative.
type Account struct {
	AcctNum string `json:"acct_num"`
	CardNum string `json:"card_num"`
	Name    string `json:"name"`

	// PIN is stored and compared as a plain digit string. The simulator
	// deliberately models the source system's behavior, not real security.
	PIN string `json:"-"`

	Balance decimal.Decimal `json:"balance"`

	// Daily withdrawal accounting. WithdrawnToday accumulates on
	// LastWithdrawDate (ISO date, empty until the first withdrawal) and is
	// reset whenever the accounting date changes.
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	WithdrawnToday   decimal.Decimal `json:"withdrawn_today"`
	LastWithdrawDate string          `json:"last_withdraw_date"`

	Transactions []Transaction `json:"transactions"`
}

// clone returns a copy safe to hand outside the store's critical section.
func (a *Account) clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}
