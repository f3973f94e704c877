package atmgo_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arhyth/atmgo"
)

func newStore(tt *testing.T) *atmgo.AccountStore {
	tt.Helper()
	store, err := atmgo.NewAccountStore(decimal.NewFromInt(1000))
	require.New(tt).Nil(err)
	return store
}

func TestCreateAccount(t *testing.T) {
	t.Run("round-trips an initial balance as the first Deposit", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := newStore(tt)

		acct, err := store.CreateAccount(atmgo.CreateAccountReq{
			Name:           "Alice",
			PIN:            "1111",
			InitialBalance: decimal.NewFromInt(100),
		})
		reqrd.Nil(err)

		got, err := store.Get(acct.AcctNum)
		reqrd.Nil(err)
		as.Equal("Alice", got.Name)
		as.True(got.Balance.Equal(decimal.RequireFromString("100.00")))
		as.True(got.DailyLimit.Equal(decimal.NewFromInt(1000)))
		reqrd.Len(got.Transactions, 1)
		as.Equal(atmgo.TxnDeposit, got.Transactions[0].Type)
		as.True(got.Transactions[0].Amount.Equal(decimal.NewFromInt(100)))
		as.True(got.Transactions[0].BalanceAfter.Equal(decimal.NewFromInt(100)))
	})

	t.Run("zero initial balance records no transaction", func(tt *testing.T) {
		as := assert.New(tt)
		store := newStore(tt)
		acct, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "Bob", PIN: "2222"})
		as.Nil(err)
		got, err := store.Get(acct.AcctNum)
		as.Nil(err)
		as.Empty(got.Transactions)
		as.True(got.Balance.IsZero())
	})

	t.Run("negative initial balance is refused", func(tt *testing.T) {
		store := newStore(tt)
		_, err := store.CreateAccount(atmgo.CreateAccountReq{
			Name:           "Eve",
			PIN:            "3333",
			InitialBalance: decimal.NewFromInt(-1),
		})
		assert.New(tt).ErrorIs(err, atmgo.ErrNegativeBalance)
	})

	t.Run("assigns well-formed identifiers", func(tt *testing.T) {
		as := assert.New(tt)
		store := newStore(tt)
		acct, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "Al", PIN: "1234"})
		as.Nil(err)
		as.Len(acct.AcctNum, 4)
		as.Len(acct.CardNum, 16)
	})

	t.Run("refuses the 9001st account once the number space is spent", func(tt *testing.T) {
		reqrd := require.New(tt)
		store := newStore(tt)

		for i := 0; i < 9000; i++ {
			_, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "acct", PIN: "0000"})
			reqrd.Nil(err)
		}
		_, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "acct", PIN: "0000"})
		assert.New(tt).ErrorIs(err, atmgo.ErrAcctNumExhausted)
	})

	t.Run("1000 concurrent creations yield 1000 distinct numbers", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := newStore(tt)

		var eg errgroup.Group
		for w := 0; w < 8; w++ {
			eg.Go(func() error {
				for i := 0; i < 125; i++ {
					if _, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "acct", PIN: "0000"}); err != nil {
						return err
					}
				}
				return nil
			})
		}
		reqrd.Nil(eg.Wait())

		accts := store.Accounts()
		reqrd.Len(accts, 1000)
		acctNums := make(map[string]struct{}, len(accts))
		cardNums := make(map[string]struct{}, len(accts))
		for _, a := range accts {
			acctNums[a.AcctNum] = struct{}{}
			cardNums[a.CardNum] = struct{}{}
		}
		as.Len(acctNums, 1000)
		as.Len(cardNums, 1000)
	})
}

func TestFindByCard(t *testing.T) {
	t.Run("resolves a card to its account", func(tt *testing.T) {
		as := assert.New(tt)
		store := newStore(tt)
		acct, err := store.CreateAccount(atmgo.CreateAccountReq{Name: "Alice", PIN: "1111"})
		as.Nil(err)

		num, err := store.FindByCard(acct.CardNum)
		as.Nil(err)
		as.Equal(acct.AcctNum, num)
	})

	t.Run("unknown card", func(tt *testing.T) {
		store := newStore(tt)
		_, err := store.FindByCard("0000000000000000")
		assert.New(tt).ErrorIs(err, atmgo.ErrNotFound)
	})
}

func TestGet(t *testing.T) {
	t.Run("unknown account", func(tt *testing.T) {
		store := newStore(tt)
		_, err := store.Get("0000")
		assert.New(tt).ErrorIs(err, atmgo.ErrNotFound)
	})

	t.Run("returns a snapshot, not the stored record", func(tt *testing.T) {
		as := assert.New(tt)
		store := newStore(tt)
		acct, err := store.CreateAccount(atmgo.CreateAccountReq{
			Name:           "Alice",
			PIN:            "1111",
			InitialBalance: decimal.NewFromInt(10),
		})
		as.Nil(err)

		snap, err := store.Get(acct.AcctNum)
		as.Nil(err)
		snap.Balance = decimal.NewFromInt(1_000_000)
		snap.Transactions[0].Amount = decimal.NewFromInt(1_000_000)

		again, err := store.Get(acct.AcctNum)
		as.Nil(err)
		as.True(again.Balance.Equal(decimal.NewFromInt(10)))
		as.True(again.Transactions[0].Amount.Equal(decimal.NewFromInt(10)))
	})
}
