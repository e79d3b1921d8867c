package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/avasilenko/vending-machine/internal/domain"
)

type mockStore struct {
	loadFn func(ctx context.Context) (domain.Snapshot, error)
	saveFn func(ctx context.Context, snap domain.Snapshot) error
}

func (m *mockStore) Load(ctx context.Context) (domain.Snapshot, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return domain.Snapshot{}, nil
}

func (m *mockStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, snap)
	}
	return nil
}

type mockPublisher struct {
	sales    int
	refunds  int
	restocks int
}

func (m *mockPublisher) Sale(context.Context, string, string, domain.Pence, domain.Pence, []domain.Denomination) {
	m.sales++
}

func (m *mockPublisher) Refund(context.Context, string, []domain.Denomination) {
	m.refunds++
}

func (m *mockPublisher) Restock(context.Context, int, int) {
	m.restocks++
}

func snapshotStore(snap domain.Snapshot) *mockStore {
	return &mockStore{
		loadFn: func(ctx context.Context) (domain.Snapshot, error) {
			return snap, nil
		},
	}
}

func newTestMachine(t *testing.T, snap domain.Snapshot) (*Machine, *mockPublisher) {
	t.Helper()
	events := &mockPublisher{}
	m := NewMachine(snapshotStore(snap), &mockStore{}, events)
	if err := m.Restock(context.Background()); err != nil {
		t.Fatalf("restock: %v", err)
	}
	return m, events
}

func TestPurchase_ExactAmount(t *testing.T) {
	m, events := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 300, Stock: 1}},
	})

	sel, err := m.SelectItem(0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Item.Name != "Cola" || sel.TransactionID == "" {
		t.Fatalf("unexpected selection %+v", sel)
	}

	ctx := context.Background()

	result, err := m.InsertCoin(ctx, "1.00")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.State != StateAwaitingFunds || result.Owed != 200 {
		t.Fatalf("expected awaiting with owed 200, got %+v", result)
	}

	result, err = m.InsertCoin(ctx, "1.00")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.State != StateAwaitingFunds || result.Owed != 100 {
		t.Fatalf("expected awaiting with owed 100, got %+v", result)
	}

	result, err = m.InsertCoin(ctx, "1.00")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.State != StateCommitted {
		t.Fatalf("expected committed, got %+v", result)
	}
	if result.Item != "Cola" || len(result.Change) != 0 {
		t.Errorf("expected Cola with no change, got %+v", result)
	}

	item, err := m.DescribeItem(0)
	if err != nil {
		t.Fatal(err)
	}
	if item.Stock != 0 {
		t.Errorf("expected item stock 0, got %d", item.Stock)
	}
	if got := m.CashierStatus().Total; got != 300 {
		t.Errorf("expected cashier total 300, got %d", got)
	}
	if events.sales != 1 {
		t.Errorf("expected 1 sale event, got %d", events.sales)
	}
}

func TestPurchase_WithChange(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Chips", Price: 125, Stock: 2}},
		Coins: []domain.CoinLot{{Denomination: 20, Count: 1}, {Denomination: 5, Count: 1}},
	})

	if _, err := m.SelectItem(0); err != nil {
		t.Fatalf("select: %v", err)
	}

	ctx := context.Background()
	if _, err := m.InsertCoin(ctx, "1.00"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	result, err := m.InsertCoin(ctx, "0.50")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if result.State != StateCommitted {
		t.Fatalf("expected committed, got %+v", result)
	}
	want := []domain.Denomination{20, 5}
	if len(result.Change) != len(want) {
		t.Fatalf("expected change %v, got %v", want, result.Change)
	}
	for i := range want {
		if result.Change[i] != want[i] {
			t.Fatalf("expected change %v, got %v", want, result.Change)
		}
	}

	// Conservation: 0.25 in, 1.50 inserted, 0.25 dispensed.
	if got := m.CashierStatus().Total; got != 150 {
		t.Errorf("expected cashier total 150, got %d", got)
	}
}

func TestPurchase_ChangeUnavailableAborts(t *testing.T) {
	m, events := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Water", Price: 125, Stock: 1}},
	})

	if _, err := m.SelectItem(0); err != nil {
		t.Fatalf("select: %v", err)
	}

	result, err := m.InsertCoin(context.Background(), "2.00")
	if !errors.Is(err, domain.ErrChangeUnavailable) {
		t.Fatalf("expected ErrChangeUnavailable, got %v", err)
	}
	if result.State != StateAborted {
		t.Fatalf("expected aborted, got %+v", result)
	}
	if len(result.Refunded) != 1 || result.Refunded[0] != 200 {
		t.Errorf("expected refund of [2.00], got %v", result.Refunded)
	}

	item, err := m.DescribeItem(0)
	if err != nil {
		t.Fatal(err)
	}
	if item.Stock != 1 {
		t.Errorf("aborted purchase must not touch item stock, got %d", item.Stock)
	}
	if got := m.CashierStatus().Total; got != 0 {
		t.Errorf("aborted purchase must not touch coin stock, got %d", got)
	}
	if events.refunds != 1 {
		t.Errorf("expected 1 refund event, got %d", events.refunds)
	}

	// Terminal state: the next transaction starts fresh.
	if _, err := m.SelectItem(0); err != nil {
		t.Errorf("expected fresh transaction after abort, got %v", err)
	}
}

func TestSelectItem_Errors(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{
			{Name: "Cola", Price: 100, Stock: 1},
			{Name: "Empty", Price: 100, Stock: 0},
		},
	})

	if _, err := m.SelectItem(5); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := m.SelectItem(-1); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := m.SelectItem(1); !errors.Is(err, domain.ErrItemOutOfStock) {
		t.Errorf("expected ErrItemOutOfStock, got %v", err)
	}

	if _, err := m.SelectItem(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := m.SelectItem(0); !errors.Is(err, domain.ErrTransactionInProgress) {
		t.Errorf("expected ErrTransactionInProgress, got %v", err)
	}
}

func TestInsertCoin_WithoutTransaction(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{})
	if _, err := m.InsertCoin(context.Background(), "1.00"); !errors.Is(err, domain.ErrNoTransaction) {
		t.Fatalf("expected ErrNoTransaction, got %v", err)
	}
}

func TestInsertCoin_UnknownCoinKeepsTransactionOpen(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 100, Stock: 1}},
	})

	if _, err := m.SelectItem(0); err != nil {
		t.Fatalf("select: %v", err)
	}

	ctx := context.Background()
	if _, err := m.InsertCoin(ctx, "0.25"); !errors.Is(err, domain.ErrUnknownDenomination) {
		t.Fatalf("expected ErrUnknownDenomination, got %v", err)
	}

	// The customer may keep trying.
	result, err := m.InsertCoin(ctx, "1.00")
	if err != nil {
		t.Fatalf("insert after rejection: %v", err)
	}
	if result.State != StateCommitted {
		t.Errorf("expected committed, got %+v", result)
	}
}

func TestRefund(t *testing.T) {
	m, events := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 300, Stock: 1}},
	})

	ctx := context.Background()
	if _, err := m.Refund(ctx); !errors.Is(err, domain.ErrNoTransaction) {
		t.Fatalf("expected ErrNoTransaction, got %v", err)
	}

	if _, err := m.SelectItem(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := m.InsertCoin(ctx, "0.50"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.InsertCoin(ctx, "1.00"); err != nil {
		t.Fatal(err)
	}

	refunded, err := m.Refund(ctx)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	want := []domain.Denomination{100, 50}
	if len(refunded) != len(want) || refunded[0] != want[0] || refunded[1] != want[1] {
		t.Errorf("expected refund %v, got %v", want, refunded)
	}

	item, _ := m.DescribeItem(0)
	if item.Stock != 1 {
		t.Errorf("refund must not touch item stock, got %d", item.Stock)
	}
	if got := m.CashierStatus().Total; got != 0 {
		t.Errorf("refund must not touch coin stock, got %d", got)
	}
	if events.refunds != 1 {
		t.Errorf("expected 1 refund event, got %d", events.refunds)
	}
}

func TestRestock_ReplacesEverything(t *testing.T) {
	m, events := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 125, Stock: 10}},
		Coins: []domain.CoinLot{{Denomination: 50, Count: 4}},
	})

	items := m.ListItems()
	if len(items) != 1 || items[0].Name != "Cola" || items[0].Stock != 10 {
		t.Fatalf("unexpected catalog %+v", items)
	}
	if got := m.CashierStatus().Total; got != 200 {
		t.Errorf("expected coin stock 200, got %d", got)
	}
	if events.restocks != 1 {
		t.Errorf("expected 1 restock event, got %d", events.restocks)
	}
}

func TestRestock_FailureLeavesMachineEmpty(t *testing.T) {
	events := &mockPublisher{}
	store := snapshotStore(domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 125, Stock: 10}},
		Coins: []domain.CoinLot{{Denomination: 50, Count: 4}},
	})
	m := NewMachine(store, &mockStore{}, events)
	if err := m.Restock(context.Background()); err != nil {
		t.Fatal(err)
	}

	store.loadFn = func(ctx context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, domain.ErrMalformedStockSource
	}

	err := m.Restock(context.Background())
	if !errors.Is(err, domain.ErrMalformedStockSource) {
		t.Fatalf("expected ErrMalformedStockSource, got %v", err)
	}
	if len(m.ListItems()) != 0 {
		t.Errorf("failed restock must leave the catalog empty")
	}
	if got := m.CashierStatus().Total; got != 0 {
		t.Errorf("failed restock must leave the coin stock empty, got %d", got)
	}
}

func TestRestock_RejectedDuringTransaction(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 100, Stock: 1}},
	})
	if _, err := m.SelectItem(0); err != nil {
		t.Fatal(err)
	}
	if err := m.Restock(context.Background()); !errors.Is(err, domain.ErrTransactionInProgress) {
		t.Errorf("expected ErrTransactionInProgress, got %v", err)
	}
	if err := m.AddStock(context.Background()); !errors.Is(err, domain.ErrTransactionInProgress) {
		t.Errorf("expected ErrTransactionInProgress, got %v", err)
	}
}

func TestAddStock_MergesCatalogAndCoins(t *testing.T) {
	events := &mockPublisher{}
	stock := snapshotStore(domain.Snapshot{
		Items: []domain.Item{
			{Name: "Cola", Price: 125, Stock: 3},
			{Name: "Chips", Price: 80, Stock: 2},
		},
		Coins: []domain.CoinLot{{Denomination: 10, Count: 2}},
	})
	supplement := snapshotStore(domain.Snapshot{
		Items: []domain.Item{
			{Name: "Cola", Price: 150, Stock: 5},
			{Name: "Water", Price: 60, Stock: 7},
		},
		Coins: []domain.CoinLot{{Denomination: 10, Count: 3}},
	})

	m := NewMachine(stock, supplement, events)
	if err := m.Restock(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.AddStock(context.Background()); err != nil {
		t.Fatal(err)
	}

	items := m.ListItems()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %+v", items)
	}
	if items[0].Name != "Cola" || items[0].Stock != 8 || items[0].Price != 150 {
		t.Errorf("Cola not merged: %+v", items[0])
	}
	if items[1].Name != "Chips" || items[1].Stock != 2 {
		t.Errorf("Chips changed unexpectedly: %+v", items[1])
	}
	if items[2].Name != "Water" || items[2].Stock != 7 {
		t.Errorf("Water not appended: %+v", items[2])
	}

	if got := m.CashierStatus().Total; got != 50 {
		t.Errorf("expected coin stock 50 after additive restock, got %d", got)
	}
}

func TestAddStock_FailureLeavesMachineUnchanged(t *testing.T) {
	events := &mockPublisher{}
	stock := snapshotStore(domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 125, Stock: 3}},
		Coins: []domain.CoinLot{{Denomination: 10, Count: 2}},
	})
	supplement := &mockStore{
		loadFn: func(ctx context.Context) (domain.Snapshot, error) {
			return domain.Snapshot{}, domain.ErrMalformedStockSource
		},
	}

	m := NewMachine(stock, supplement, events)
	if err := m.Restock(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := m.AddStock(context.Background()); !errors.Is(err, domain.ErrMalformedStockSource) {
		t.Fatalf("expected ErrMalformedStockSource, got %v", err)
	}
	items := m.ListItems()
	if len(items) != 1 || items[0].Stock != 3 {
		t.Errorf("failed add stock must not change the catalog: %+v", items)
	}
	if got := m.CashierStatus().Total; got != 20 {
		t.Errorf("failed add stock must not change coins, got %d", got)
	}
}

func TestSaveStock_SnapshotShape(t *testing.T) {
	var saved domain.Snapshot
	stock := snapshotStore(domain.Snapshot{
		Items: []domain.Item{{Name: "Cola", Price: 125, Stock: 3}},
		Coins: []domain.CoinLot{{Denomination: 200, Count: 1}, {Denomination: 1, Count: 5}},
	})
	stock.saveFn = func(ctx context.Context, snap domain.Snapshot) error {
		saved = snap
		return nil
	}

	m := NewMachine(stock, &mockStore{}, &mockPublisher{})
	if err := m.Restock(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveStock(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(saved.Items) != 1 || saved.Items[0].Name != "Cola" {
		t.Fatalf("unexpected saved items %+v", saved.Items)
	}
	if len(saved.Coins) != len(domain.Denominations) {
		t.Fatalf("expected every denomination in the snapshot, got %d", len(saved.Coins))
	}
	for i := 1; i < len(saved.Coins); i++ {
		if saved.Coins[i].Denomination <= saved.Coins[i-1].Denomination {
			t.Fatalf("coins not sorted ascending: %+v", saved.Coins)
		}
	}
	if saved.Coins[0].Denomination != 1 || saved.Coins[0].Count != 5 {
		t.Errorf("unexpected first coin lot %+v", saved.Coins[0])
	}
}

func TestCashierStatus(t *testing.T) {
	m, _ := newTestMachine(t, domain.Snapshot{
		Coins: []domain.CoinLot{
			{Denomination: 50, Count: 2},
			{Denomination: 1, Count: 10},
		},
	})

	status := m.CashierStatus()
	if status.Total != 110 {
		t.Errorf("expected total 110, got %d", status.Total)
	}
	if len(status.Coins) != len(domain.Denominations) {
		t.Fatalf("expected a row per denomination, got %d", len(status.Coins))
	}
	if status.Coins[0].Denomination != 1 {
		t.Errorf("expected ascending order, first row %+v", status.Coins[0])
	}
	for _, row := range status.Coins {
		if row.Denomination == 50 {
			if row.Count != 2 || row.Subtotal != 100 {
				t.Errorf("unexpected 0.50 row %+v", row)
			}
		}
	}
}
