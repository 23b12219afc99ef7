// Package queue persists the offline action queue.
//
// The queue is an append-only log with remove-by-id, not a serialized list
// that gets rewritten wholesale: an enqueue racing a drain can never be lost
// because the drain only deletes ids it actually processed.
package queue

import (
	"context"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
)

// Repository describes persistence operations for queued actions.
type Repository interface {
	// Enqueue appends an item. ID and Timestamp must already be set.
	Enqueue(ctx context.Context, item *models.QueueItem) error

	// List returns all queued items in enqueue order.
	List(ctx context.Context) ([]models.QueueItem, error)

	// RemoveByID deletes an item after its remote call(s) succeeded.
	// Removing an absent id is not an error.
	RemoveByID(ctx context.Context, id string) error

	// PurgeMatching deletes queued items whose payload belongs to the given
	// (siteID, userID, forDate) scope. Used only by the explicit
	// user-initiated discard flow.
	PurgeMatching(ctx context.Context, siteID, userID, forDate string) (int, error)

	// Size returns the number of queued items.
	Size(ctx context.Context) (int, error)

	// IsEmpty reports whether the queue has no items.
	IsEmpty(ctx context.Context) (bool, error)
}
