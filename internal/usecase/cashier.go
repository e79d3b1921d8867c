package usecase

import (
	"fmt"

	"github.com/avasilenko/vending-machine/internal/domain"
)

// Cashier has sole custody of the machine's coins. It keeps three
// ledgers: stock (coins the machine owns), pending (coins the current
// customer has inserted) and reserved (a scratch ledger used only while
// a change computation is in flight). Outside MakeChange the reserved
// ledger is always empty; outside a transaction the pending ledger is
// always empty.
type Cashier struct {
	stock    domain.CoinStock
	pending  domain.CoinStock
	reserved domain.CoinStock
}

func NewCashier() *Cashier {
	return &Cashier{
		stock:    domain.NewCoinStock(),
		pending:  domain.NewCoinStock(),
		reserved: domain.NewCoinStock(),
	}
}

// StockCoin sets the stock of one denomination to an absolute count.
// Used by full restock.
func (c *Cashier) StockCoin(d domain.Denomination, count int) error {
	if !d.Valid() {
		return domain.ErrUnknownDenomination
	}
	if count < 0 {
		return fmt.Errorf("negative coin count %d for %s", count, d)
	}
	c.stock[d] = count
	return nil
}

// AddCoin adds count coins of one denomination to the stock.
func (c *Cashier) AddCoin(d domain.Denomination, count int) error {
	if !d.Valid() {
		return domain.ErrUnknownDenomination
	}
	if count < 0 {
		return fmt.Errorf("negative coin count %d for %s", count, d)
	}
	c.stock[d] += count
	return nil
}

// ClearAllStock zeroes every denomination in the stock ledger.
func (c *Cashier) ClearAllStock() {
	for d := range c.stock {
		c.stock[d] = 0
	}
}

// DepositPending accepts one customer coin into the pending ledger.
// An unaccepted denomination is rejected without any state change.
func (c *Cashier) DepositPending(d domain.Denomination) error {
	if !d.Valid() {
		return domain.ErrUnknownDenomination
	}
	c.pending[d]++
	return nil
}

// CommitPending moves every pending coin into the stock ledger.
// Called when a sale completes.
func (c *Cashier) CommitPending() {
	for d, count := range c.pending {
		c.stock[d] += count
		c.pending[d] = 0
	}
}

// RefundPending returns every pending coin to the customer, one entry
// per coin, highest value first, and empties the pending ledger. The
// stock ledger is untouched. An empty pending ledger yields an empty
// list.
func (c *Cashier) RefundPending() []domain.Denomination {
	refunded := []domain.Denomination{}
	for _, d := range domain.Denominations {
		for i := 0; i < c.pending[d]; i++ {
			refunded = append(refunded, d)
		}
		c.pending[d] = 0
	}
	return refunded
}

// PendingTotal is the value of all coins the customer has inserted.
func (c *Cashier) PendingTotal() domain.Pence {
	return c.pending.Total()
}

// TotalStockValue is the value of all coins the machine owns.
func (c *Cashier) TotalStockValue() domain.Pence {
	return c.stock.Total()
}

// Snapshot returns a copy of the stock ledger. Mutating the copy does
// not affect the cashier.
func (c *Cashier) Snapshot() domain.CoinStock {
	return c.stock.Clone()
}

// MakeChange assembles amount out of the stock ledger using a greedy
// pass over the denominations, largest first. Coins taken from stock
// are tracked in the reserved ledger; if the pass cannot zero the
// remainder every reserved coin is returned to stock and
// ErrChangeUnavailable is reported, so a failed call leaves the stock
// ledger exactly as it found it.
//
// Greedy is not an exact-change search: once a denomination runs out
// the pass moves on to the next smaller one, it never backtracks.
func (c *Cashier) MakeChange(amount domain.Pence) ([]domain.Denomination, error) {
	change := []domain.Denomination{}
	if amount == 0 {
		return change, nil
	}

	remaining := amount
	for _, d := range domain.Denominations {
		for remaining >= d.Value() && c.stock[d] > 0 {
			remaining -= d.Value()
			c.stock[d]--
			c.reserved[d]++
			change = append(change, d)
		}
	}

	if remaining > 0 {
		// Roll back: every reserved coin goes back into stock.
		for d, count := range c.reserved {
			c.stock[d] += count
			c.reserved[d] = 0
		}
		return nil, domain.ErrChangeUnavailable
	}

	for d := range c.reserved {
		c.reserved[d] = 0
	}
	return change, nil
}
