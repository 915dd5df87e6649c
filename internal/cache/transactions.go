package cache

import (
	"database/sql"
	"time"

	"billfold/internal/api"
)

// PutTransactions replaces the cached transaction list with a freshly
// fetched page.
func (d *DB) PutTransactions(txs []api.Transaction) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM transactions`); err != nil {
		tx.Rollback()
		return err
	}
	now := time.Now().Unix()
	for _, t := range txs {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO transactions (id, date, description, status, amount, direction, category_id, fetched_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date, nullStr(t.Description), t.Status, t.Amount, nullStr(t.Direction), t.CategoryID, now)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetTransactions returns the cached transactions and whether they are still
// fresh within ttl.
func (d *DB) GetTransactions(ttl time.Duration) ([]api.Transaction, bool, error) {
	rows, err := d.db.Query(
		`SELECT id, date, description, status, amount, direction, category_id, fetched_at
		 FROM transactions ORDER BY date DESC`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var txs []api.Transaction
	var oldest int64
	for rows.Next() {
		var t api.Transaction
		var description, direction sql.NullString
		var fetchedAt int64
		if err := rows.Scan(&t.ID, &t.Date, &description, &t.Status, &t.Amount, &direction, &t.CategoryID, &fetchedAt); err != nil {
			return nil, false, err
		}
		t.Description = description.String
		t.Direction = direction.String
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(txs) == 0 {
		return nil, false, nil
	}
	isFresh := time.Since(time.Unix(oldest, 0)) < ttl
	return txs, isFresh, nil
}

// ClearTransactions empties the transaction cache.
func (d *DB) ClearTransactions() error {
	_, err := d.db.Exec(`DELETE FROM transactions`)
	return err
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
