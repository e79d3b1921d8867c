package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/avasilenko/vending-machine/internal/domain"
)

// State of the purchase state machine as reported to callers.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingFunds State = "awaiting_funds"
	StateCommitted     State = "committed"
	StateAborted       State = "aborted"
)

// Selection is the outcome of picking an item for purchase.
type Selection struct {
	TransactionID string
	Item          domain.Item
}

// DepositResult describes the machine after one coin insertion. When
// State is StateCommitted, Item and Change carry what was dispensed;
// when StateAborted, Refunded carries the coins returned to the
// customer.
type DepositResult struct {
	TransactionID string
	State         State
	Inserted      domain.Pence
	Owed          domain.Pence
	Item          string
	Change        []domain.Denomination
	Refunded      []domain.Denomination
}

// DenominationStatus is one row of the cashier status report.
type DenominationStatus struct {
	Denomination domain.Denomination
	Count        int
	Subtotal     domain.Pence
}

// CashierStatus reports the coin stock, ascending by face value.
type CashierStatus struct {
	Coins []DenominationStatus
	Total domain.Pence
}

// Machine coordinates a single purchase at a time against the item
// catalog and the cashier. One mutex guards all state: change making
// debits stock in multiple steps and must be atomic with respect to
// restocks and other requests.
type Machine struct {
	mu      sync.Mutex
	items   []domain.Item
	cashier *Cashier

	stock      StockStore
	supplement StockStore
	events     EventPublisher

	selected int // index into items, -1 when no transaction is open
	txID     uuid.UUID
}

func NewMachine(stock, supplement StockStore, events EventPublisher) *Machine {
	return &Machine{
		cashier:    NewCashier(),
		stock:      stock,
		supplement: supplement,
		events:     events,
		selected:   -1,
	}
}

// SelectItem opens a transaction for the item with the given catalog
// position. The machine stays idle if the item does not exist or is
// out of stock.
func (m *Machine) SelectItem(id int) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected >= 0 {
		return Selection{}, domain.ErrTransactionInProgress
	}
	if id < 0 || id >= len(m.items) {
		return Selection{}, domain.ErrItemNotFound
	}
	if !m.items[id].Available() {
		return Selection{}, domain.ErrItemOutOfStock
	}

	m.selected = id
	m.txID = uuid.New()
	return Selection{TransactionID: m.txID.String(), Item: m.items[id]}, nil
}

// InsertCoin feeds one customer coin into the open transaction. An
// unaccepted denomination is rejected but the transaction stays open.
// Once the inserted total covers the price the machine settles: on
// success the sale commits and the item plus change are dispensed; if
// exact change cannot be made all inserted coins are refunded, the
// transaction aborts and the result is returned alongside
// ErrChangeUnavailable.
func (m *Machine) InsertCoin(ctx context.Context, code string) (DepositResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected < 0 {
		return DepositResult{}, domain.ErrNoTransaction
	}

	d, err := domain.ParseDenomination(code)
	if err != nil {
		return DepositResult{}, err
	}
	if err := m.cashier.DepositPending(d); err != nil {
		return DepositResult{}, err
	}

	item := &m.items[m.selected]
	inserted := m.cashier.PendingTotal()
	owed := item.Price - inserted

	result := DepositResult{
		TransactionID: m.txID.String(),
		Inserted:      inserted,
	}

	if owed > 0 {
		result.State = StateAwaitingFunds
		result.Owed = owed
		return result, nil
	}

	change, err := m.cashier.MakeChange(-owed)
	if err != nil {
		result.State = StateAborted
		result.Refunded = m.cashier.RefundPending()
		m.events.Refund(ctx, result.TransactionID, result.Refunded)
		m.closeTransaction()
		return result, err
	}

	m.cashier.CommitPending()
	item.Stock--

	result.State = StateCommitted
	result.Item = item.Name
	result.Change = change
	m.events.Sale(ctx, result.TransactionID, item.Name, item.Price, inserted, change)
	m.closeTransaction()
	return result, nil
}

// Refund aborts the open transaction and returns every inserted coin,
// highest value first. Item stock is untouched.
func (m *Machine) Refund(ctx context.Context) ([]domain.Denomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected < 0 {
		return nil, domain.ErrNoTransaction
	}

	refunded := m.cashier.RefundPending()
	m.events.Refund(ctx, m.txID.String(), refunded)
	m.closeTransaction()
	return refunded, nil
}

func (m *Machine) closeTransaction() {
	m.selected = -1
	m.txID = uuid.Nil
}

// ListItems returns a copy of the catalog.
func (m *Machine) ListItems() []domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.Item, len(m.items))
	copy(items, m.items)
	return items
}

// DescribeItem returns the catalog entry at the given position.
func (m *Machine) DescribeItem(id int) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= len(m.items) {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return m.items[id], nil
}

// CashierStatus reports every denomination's count and subtotal plus
// the grand total, ascending by face value.
func (m *Machine) CashierStatus() CashierStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	stock := m.cashier.Snapshot()
	status := CashierStatus{Coins: make([]DenominationStatus, 0, len(domain.Denominations))}
	for i := len(domain.Denominations) - 1; i >= 0; i-- {
		d := domain.Denominations[i]
		status.Coins = append(status.Coins, DenominationStatus{
			Denomination: d,
			Count:        stock[d],
			Subtotal:     d.Value() * domain.Pence(stock[d]),
		})
	}
	status.Total = m.cashier.TotalStockValue()
	return status
}

// Restock replaces the whole catalog and coin stock from the primary
// stock store. The machine is cleared before the store is read, so a
// load failure leaves it empty rather than reverting to its prior
// stock; callers should treat a restock error as "machine now empty".
func (m *Machine) Restock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected >= 0 {
		return domain.ErrTransactionInProgress
	}

	m.items = nil
	m.cashier.ClearAllStock()

	snap, err := m.stock.Load(ctx)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}

	m.items = append(m.items, snap.Items...)
	for _, lot := range snap.Coins {
		if err := m.cashier.StockCoin(lot.Denomination, lot.Count); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
	}

	m.events.Restock(ctx, len(snap.Items), len(snap.Coins))
	return nil
}

// AddStock merges the supplement store into the current stock: items
// with a matching name gain the record's stock and take its price, new
// names are appended, and coin counts are added. A load failure leaves
// the machine unchanged.
func (m *Machine) AddStock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected >= 0 {
		return domain.ErrTransactionInProgress
	}

	snap, err := m.supplement.Load(ctx)
	if err != nil {
		return fmt.Errorf("add stock: %w", err)
	}

	for _, rec := range snap.Items {
		if i := m.findItem(rec.Name); i >= 0 {
			m.items[i].Stock += rec.Stock
			m.items[i].Price = rec.Price
			continue
		}
		m.items = append(m.items, rec)
	}
	for _, lot := range snap.Coins {
		if err := m.cashier.AddCoin(lot.Denomination, lot.Count); err != nil {
			return fmt.Errorf("add stock: %w", err)
		}
	}

	m.events.Restock(ctx, len(snap.Items), len(snap.Coins))
	return nil
}

// SaveStock writes the current catalog and coin stock to the primary
// stock store.
func (m *Machine) SaveStock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stock.Save(ctx, m.snapshotLocked()); err != nil {
		return fmt.Errorf("save stock: %w", err)
	}
	return nil
}

func (m *Machine) findItem(name string) int {
	for i := range m.items {
		if m.items[i].Name == name {
			return i
		}
	}
	return -1
}

func (m *Machine) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Items: make([]domain.Item, len(m.items)),
		Coins: make([]domain.CoinLot, 0, len(domain.Denominations)),
	}
	copy(snap.Items, m.items)

	stock := m.cashier.Snapshot()
	for i := len(domain.Denominations) - 1; i >= 0; i-- {
		d := domain.Denominations[i]
		snap.Coins = append(snap.Coins, domain.CoinLot{Denomination: d, Count: stock[d]})
	}
	return snap
}
