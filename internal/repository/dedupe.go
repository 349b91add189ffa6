package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// fieldMatch is one column/value pair for the disjunctive duplicate check.
type fieldMatch struct {
	Column string
	Value  string
}

// findDuplicateID applies the duplicate checks in strict order, first hit
// wins:
//
//  1. exact match on stored filename
//  2. exact match on ANY of the discriminator columns (disjunctive — the
//     legacy system treats a shared date alone as a duplicate; preserved
//     for compatibility, known false-positive source)
//  3. exact match on full extracted text
//
// Empty values are skipped so blank extractions never match blank rows.
// Returns 0 when no duplicate exists. The check is not atomic against the
// subsequent insert; two near-simultaneous uploads of one document can
// both pass and both insert.
func findDuplicateID(ctx context.Context, db *sql.DB, table, filename string, disc []fieldMatch, fullText string) (int64, error) {
	if filename != "" {
		id, err := queryID(ctx, db, `SELECT id FROM `+table+` WHERE filename = ? LIMIT 1`, filename)
		if err != nil || id != 0 {
			return id, err
		}
	}

	for _, fm := range disc {
		if fm.Value == "" {
			continue
		}
		id, err := queryID(ctx, db, `SELECT id FROM `+table+` WHERE `+fm.Column+` = ? LIMIT 1`, fm.Value)
		if err != nil || id != 0 {
			return id, err
		}
	}

	if fullText != "" {
		id, err := queryID(ctx, db, `SELECT id FROM `+table+` WHERE full_text = ? LIMIT 1`, fullText)
		if err != nil || id != 0 {
			return id, err
		}
	}
	return 0, nil
}

func queryID(ctx context.Context, db *sql.DB, query string, arg any) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	return id, nil
}
