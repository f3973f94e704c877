package atmgo_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/atmgo"
	"github.com/arhyth/atmgo/mocks"
)

func TestValidationMiddleware(t *testing.T) {
	t.Run("CreateAccount rejects a missing name before the engine sees it", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		_, err := svc.CreateAccount(atmgo.CreateAccountReq{PIN: "1111"})
		var br atmgo.ErrBadRequest
		as.True(errors.As(err, &br))
		as.Contains(br.Fields, "Name")
	})

	t.Run("CreateAccount rejects a malformed PIN", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		for _, bad := range []string{"12", "12345", "12a4"} {
			_, err := svc.CreateAccount(atmgo.CreateAccountReq{Name: "Alice", PIN: bad})
			var br atmgo.ErrBadRequest
			as.True(errors.As(err, &br), "pin %q", bad)
			as.Contains(br.Fields, "PIN")
		}
	})

	t.Run("CreateAccount passes a well-formed request through", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		want := &atmgo.Account{AcctNum: "4242", Name: "Alice"}
		next.EXPECT().
			CreateAccount(gomock.AssignableToTypeOf(atmgo.CreateAccountReq{})).
			DoAndReturn(func(req atmgo.CreateAccountReq) (*atmgo.Account, error) {
				as.Equal("Alice", req.Name)
				as.Equal("1111", req.PIN)
				return want, nil
			}).
			Times(1)

		got, err := svc.CreateAccount(atmgo.CreateAccountReq{Name: "Alice", PIN: "1111"})
		reqrd.Nil(err)
		as.Equal(want, got)
	})

	t.Run("charges require an account number", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		_, err := svc.Deposit(atmgo.ChargeReq{Amount: decimal.NewFromInt(10)})
		var br atmgo.ErrBadRequest
		as.True(errors.As(err, &br))

		_, err = svc.Withdraw(atmgo.ChargeReq{Amount: decimal.NewFromInt(10)})
		as.True(errors.As(err, &br))
	})

	t.Run("transfers require both endpoints", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		err := svc.Transfer(atmgo.TransferReq{FromAcct: "1234", Amount: decimal.NewFromInt(10), PIN: "1111"})
		var br atmgo.ErrBadRequest
		as.True(errors.As(err, &br))
	})

	t.Run("FindByCard insists on a 16-digit card number", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := atmgo.NewValidationMiddleware()(next)

		_, err := svc.FindByCard("12345")
		var br atmgo.ErrBadRequest
		as.True(errors.As(err, &br))

		next.EXPECT().
			FindByCard("4111111111111111").
			Return("4242", nil).
			Times(1)
		num, err := svc.FindByCard("4111111111111111")
		as.Nil(err)
		as.Equal("4242", num)
	})
}
