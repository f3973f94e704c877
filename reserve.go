package atmgo

import (
	"sync"

	"github.com/shopspring/decimal"
)

// CashReserve tracks the machine's physical cash float, independent of any
// account balance. It only ever decreases; the engine refuses a withdrawal
// before the reserve could go negative.
type CashReserve struct {
	mu    sync.Mutex
	avail decimal.Decimal
}

func NewCashReserve(float decimal.Decimal) *CashReserve {
	return &CashReserve{avail: float}
}

func (r *CashReserve) Available() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.avail
}

// debit assumes the engine has already verified amt <= Available() inside
// its own critical section; it is the sole caller.
func (r *CashReserve) debit(amt decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.avail = r.avail.Sub(amt)
}
