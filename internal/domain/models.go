package domain

import "errors"

var (
	ErrUnknownDenomination   = errors.New("coin denomination is not accepted")
	ErrItemNotFound          = errors.New("item not found")
	ErrItemOutOfStock        = errors.New("item is out of stock")
	ErrChangeUnavailable     = errors.New("exact change unavailable")
	ErrNoTransaction         = errors.New("no transaction in progress")
	ErrTransactionInProgress = errors.New("a transaction is already in progress")
	ErrMalformedStockSource  = errors.New("malformed stock source")
)

// Denomination is the face value of an accepted coin, in pence.
type Denomination Pence

// Denominations is the accepted coin set, ordered descending by value.
// It is the single source of truth shared by coin validation, stock
// parsing and change formatting.
var Denominations = []Denomination{200, 100, 50, 20, 10, 5, 2, 1}

func (d Denomination) Value() Pence { return Pence(d) }

func (d Denomination) String() string { return Pence(d).String() }

func (d Denomination) Valid() bool {
	for _, a := range Denominations {
		if d == a {
			return true
		}
	}
	return false
}

// ParseDenomination parses a coin code such as "0.50" and validates it
// against the accepted set.
func ParseDenomination(s string) (Denomination, error) {
	p, err := ParsePence(s)
	if err != nil {
		return 0, ErrUnknownDenomination
	}
	d := Denomination(p)
	if !d.Valid() {
		return 0, ErrUnknownDenomination
	}
	return d, nil
}

// CoinStock maps each accepted denomination to a non-negative count.
type CoinStock map[Denomination]int

// NewCoinStock returns a stock with every accepted denomination at zero.
func NewCoinStock() CoinStock {
	cs := make(CoinStock, len(Denominations))
	for _, d := range Denominations {
		cs[d] = 0
	}
	return cs
}

// Total is the summed value of all coins in the stock.
func (cs CoinStock) Total() Pence {
	var total Pence
	for d, count := range cs {
		total += d.Value() * Pence(count)
	}
	return total
}

func (cs CoinStock) Clone() CoinStock {
	out := make(CoinStock, len(cs))
	for d, count := range cs {
		out[d] = count
	}
	return out
}

// Item is a purchasable catalog entry. Name is the unique key.
type Item struct {
	Name  string
	Price Pence
	Stock int
}

func (i Item) Available() bool { return i.Stock > 0 }

// CoinLot is one denomination's count in a portable stock snapshot.
type CoinLot struct {
	Denomination Denomination
	Count        int
}

// Snapshot is the portable stock state exchanged with stock stores.
// Coins are sorted ascending by face value for deterministic output.
type Snapshot struct {
	Items []Item
	Coins []CoinLot
}
