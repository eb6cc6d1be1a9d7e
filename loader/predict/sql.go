package predict

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/bytedance/sonic"

	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLExchange is an Exchange backed by a database table shared by all
// ranks. Predictions are stored as JSON, so values come back as the types
// JSON decodes to.
type SQLExchange struct {
	db    *sql.DB
	table string
}

// NewSQLExchange creates table if needed and returns an exchange over it.
func NewSQLExchange(ctx context.Context, db *sql.DB, table string) (*SQLExchange, error) {
	if !tableName.MatchString(table) {
		return nil, loaderrors.Configuration("table", table, "must be a plain identifier")
	}
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		round   TEXT    NOT NULL,
		rank    INTEGER NOT NULL,
		payload BLOB    NOT NULL,
		PRIMARY KEY (round, rank)
	)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return &SQLExchange{db: db, table: table}, nil
}

func (x *SQLExchange) Put(ctx context.Context, round string, rank int, preds []Keyed) error {
	payload, err := sonic.Marshal(preds)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+x.table+` WHERE round = ? AND rank = ?`, round, rank); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+x.table+` (round, rank, payload) VALUES (?, ?, ?)`, round, rank, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func (x *SQLExchange) Gather(ctx context.Context, round string) ([][]Keyed, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT payload FROM `+x.table+` WHERE round = ? ORDER BY rank`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]Keyed
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var preds []Keyed
		if err := sonic.Unmarshal(payload, &preds); err != nil {
			return nil, fmt.Errorf("decode predictions: %w", err)
		}
		out = append(out, preds)
	}
	return out, rows.Err()
}

func (x *SQLExchange) Clear(ctx context.Context, round string) error {
	_, err := x.db.ExecContext(ctx, `DELETE FROM `+x.table+` WHERE round = ?`, round)
	return err
}
