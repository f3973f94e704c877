package atmgo

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// acctNumSpace is the size of the 4-digit account number space (1000-9999).
const acctNumSpace = 9000

// AccountStore owns every Account record and its transaction history. The
// single mutex also serializes every ledger operation; the engine takes it
// directly so that a transfer's two mutations land in one critical section.
type AccountStore struct {
	mu           sync.Mutex
	accts        map[string]*Account
	cards        map[string]string // card number -> account number
	node         *snowflake.Node
	defaultLimit decimal.Decimal

	// now stamps creation deposits; the engine aligns it with its own
	// clock so every transaction is stamped by the same source.
	now func() time.Time
}

func NewAccountStore(defaultLimit decimal.Decimal) (*AccountStore, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &AccountStore{
		accts:        make(map[string]*Account),
		cards:        make(map[string]string),
		node:         node,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}, nil
}

// CreateAccount assigns fresh account and card numbers and inserts the
// account. A positive initial balance is recorded as the account's first
// Deposit transaction. Returns a copy, not the stored record.
func (s *AccountStore) CreateAccount(req CreateAccountReq) (*Account, error) {
	if req.InitialBalance.Sign() < 0 {
		return nil, ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accts) >= acctNumSpace {
		return nil, ErrAcctNumExhausted
	}

	a := &Account{
		AcctNum:    s.genAcctNum(),
		CardNum:    s.genCardNum(),
		Name:       req.Name,
		PIN:        req.PIN,
		Balance:    req.InitialBalance,
		DailyLimit: s.defaultLimit,
	}
	if req.InitialBalance.Sign() > 0 {
		a.Transactions = append(a.Transactions, Transaction{
			ID:           s.node.Generate(),
			Type:         TxnDeposit,
			Amount:       req.InitialBalance,
			Timestamp:    s.now().Truncate(time.Second),
			BalanceAfter: req.InitialBalance,
		})
	}

	s.accts[a.AcctNum] = a
	s.cards[a.CardNum] = a.AcctNum

	return a.clone(), nil
}

// FindByCard resolves a 16-digit card number to its account number.
func (s *AccountStore) FindByCard(cardNum string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acctNum, ok := s.cards[cardNum]
	if !ok {
		return "", ErrNotFound
	}
	return acctNum, nil
}

// Get returns a snapshot of the account. Callers cannot mutate store state
// through it; all mutation goes through the ledger engine.
func (s *AccountStore) Get(acctNum string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accts[acctNum]
	if !ok {
		return nil, ErrNotFound
	}
	return a.clone(), nil
}

// Accounts returns snapshots of every account, ordered by account number.
func (s *AccountStore) Accounts() []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Account, 0, len(s.accts))
	for _, a := range s.accts {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcctNum < out[j].AcctNum })
	return out
}

// genAcctNum picks a free 4-digit number. Caller holds mu and has already
// checked the space is not exhausted.
func (s *AccountStore) genAcctNum() string {
	for {
		n := strconv.Itoa(1000 + rand.IntN(acctNumSpace))
		if _, taken := s.accts[n]; !taken {
			return n
		}
	}
}

func (s *AccountStore) genCardNum() string {
	buf := make([]byte, 16)
	for {
		for i := range buf {
			buf[i] = byte('0' + rand.IntN(10))
		}
		card := string(buf)
		if _, taken := s.cards[card]; !taken {
			return card
		}
	}
}
