package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avasilenko/vending-machine/internal/domain"
)

// PostgresStore keeps stock snapshots in two tables, vending_items and
// vending_coins. Save replaces both inside one transaction so a
// snapshot is never half written.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{}

	rows, err := s.pool.Query(ctx,
		`SELECT name, price_pence, stock FROM vending_items ORDER BY position`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.Item
		var price int64
		if err := rows.Scan(&item.Name, &price, &item.Stock); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan item: %w", err)
		}
		item.Price = domain.Pence(price)
		if item.Stock < 0 || item.Price < 0 {
			return domain.Snapshot{}, fmt.Errorf("%w: item %q", domain.ErrMalformedStockSource, item.Name)
		}
		snap.Items = append(snap.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("read items: %w", err)
	}

	coinRows, err := s.pool.Query(ctx,
		`SELECT denomination_pence, stock FROM vending_coins ORDER BY denomination_pence`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query coins: %w", err)
	}
	defer coinRows.Close()

	for coinRows.Next() {
		var value int64
		var count int
		if err := coinRows.Scan(&value, &count); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan coin: %w", err)
		}
		d := domain.Denomination(value)
		if !d.Valid() || count < 0 {
			return domain.Snapshot{}, fmt.Errorf("%w: coin %d", domain.ErrMalformedStockSource, value)
		}
		snap.Coins = append(snap.Coins, domain.CoinLot{Denomination: d, Count: count})
	}
	if err := coinRows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("read coins: %w", err)
	}

	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap domain.Snapshot) error {
	return s.execTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM vending_items`); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM vending_coins`); err != nil {
			return fmt.Errorf("clear coins: %w", err)
		}

		for i, item := range snap.Items {
			_, err := tx.Exec(ctx,
				`INSERT INTO vending_items (position, name, price_pence, stock) VALUES ($1, $2, $3, $4)`,
				i, item.Name, int64(item.Price), item.Stock)
			if err != nil {
				return fmt.Errorf("insert item %q: %w", item.Name, err)
			}
		}
		for _, lot := range snap.Coins {
			_, err := tx.Exec(ctx,
				`INSERT INTO vending_coins (denomination_pence, stock) VALUES ($1, $2)`,
				int64(lot.Denomination), lot.Count)
			if err != nil {
				return fmt.Errorf("insert coin %s: %w", lot.Denomination, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) execTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
