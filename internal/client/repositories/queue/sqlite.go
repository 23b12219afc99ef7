package queue

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	query := `INSERT INTO queue_items (id, type, payload, created_at, synced)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, string(item.Type), []byte(item.Payload), item.Timestamp, boolToInt(item.Synced))
	if err != nil {
		return fmt.Errorf("failed to enqueue action: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.QueueItem, error) {
	query := `SELECT id, type, payload, created_at, synced FROM queue_items ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue items: %w", err)
	}
	defer rows.Close()

	var result []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		var typ string
		var synced int
		if err := rows.Scan(&item.ID, &typ, (*[]byte)(&item.Payload), &item.Timestamp, &synced); err != nil {
			return nil, err
		}
		item.Type = models.ActionType(typ)
		item.Synced = synced != 0
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) RemoveByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove queue item %s: %w", id, err)
	}
	return nil
}

// PurgeMatching deletes items whose payload belongs to the given scope.
// The scope fields live at the payload root for clock and day-start actions
// and under "timesheet" for submissions, so both paths are checked.
func (r *SQLiteRepository) PurgeMatching(ctx context.Context, siteID, userID, forDate string) (int, error) {
	query := `
		DELETE FROM queue_items
		WHERE coalesce(json_extract(payload, '$.siteID'),  json_extract(payload, '$.timesheet.siteID'))  = ?
		  AND coalesce(json_extract(payload, '$.userID'),  json_extract(payload, '$.timesheet.userID'))  = ?
		  AND coalesce(json_extract(payload, '$.forDate'), json_extract(payload, '$.timesheet.forDate')) = ?`
	res, err := r.db.ExecContext(ctx, query, siteID, userID, forDate)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) Size(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.Size(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
