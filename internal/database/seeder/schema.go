package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vahire/internal/database"
)

var errSchemaMismatch = errors.New("schema mismatch")

// requireColumns fails with every column of table that the migrations have not created yet.
func requireColumns(ctx context.Context, db database.Querier, table string, columns ...string) error {
	if db == nil {
		return errors.New("seeder: nil db")
	}

	rows, err := db.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
		table,
	)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	have := make(map[string]bool, len(columns))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range columns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is missing %s", errSchemaMismatch, table, strings.Join(missing, ", "))
	}
	return nil
}
