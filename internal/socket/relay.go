package socket

import (
	"context"

	"github.com/ninthgrid/ninthgrid-backend/internal/progress"
	"github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// ProgressRelay pushes every snapshot written to the wrapped store onto the hub.
// Used when the store itself does not publish (the in-memory store).
type ProgressRelay struct {
	progress.Store
	hub *Hub
}

func NewProgressRelay(store progress.Store, hub *Hub) *ProgressRelay {
	return &ProgressRelay{Store: store, hub: hub}
}

func (r *ProgressRelay) Set(ctx context.Context, uploadID string, p types.UploadProgress) error {
	if err := r.Store.Set(ctx, uploadID, p); err != nil {
		return err
	}
	r.hub.BroadcastGlobal(ctx, Message{Channel: progress.Key(uploadID), Payload: p})
	return nil
}
