package atmgo_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/atmgo"
)

func TestStatement(t *testing.T) {
	t.Run("renders a PDF covering recent history", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newLedger(tt, "1000", "5000")
		acct := mustCreate(tt, svc, "Alice", "1111", "100")
		_, err := svc.Deposit(atmgo.ChargeReq{AcctNum: acct.AcctNum, Amount: decimal.NewFromInt(40)})
		reqrd.Nil(err)
		_, err = svc.Withdraw(atmgo.ChargeReq{AcctNum: acct.AcctNum, Amount: decimal.NewFromInt(60)})
		reqrd.Nil(err)

		buf := &bytes.Buffer{}
		err = svc.Statement(buf, atmgo.StatementReq{AcctNum: acct.AcctNum})
		reqrd.Nil(err)
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
		as.Greater(buf.Len(), 500)
	})

	t.Run("unknown account", func(tt *testing.T) {
		svc := newLedger(tt, "1000", "5000")
		err := svc.Statement(&bytes.Buffer{}, atmgo.StatementReq{AcctNum: "0000"})
		assert.New(tt).ErrorIs(err, atmgo.ErrNotFound)
	})

	t.Run("empty history still renders", func(tt *testing.T) {
		as := assert.New(tt)
		svc := newLedger(tt, "1000", "5000")
		acct := mustCreate(tt, svc, "Bob", "2222", "0")
		buf := &bytes.Buffer{}
		err := svc.Statement(buf, atmgo.StatementReq{AcctNum: acct.AcctNum})
		as.Nil(err)
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	})
}
