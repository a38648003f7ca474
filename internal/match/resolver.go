package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
)

// ErrInvalidResolution is returned when the resolution type is not one a
// caller may set.
var ErrInvalidResolution = errors.New("invalid resolution type")

// Resolve marks an item resolved on behalf of its owner. With a matchID, the
// counterpart item is resolved as matched in the same transaction, one
// resolution record is written, and the counterpart's owner is notified
// best-effort after commit (skipped silently when they have no registered
// tokens). A matchID referencing a missing item resolves the primary item
// alone.
//
// Ownership and the open state are checked on the primary item only;
// concurrent double resolution fails with store.ErrAlreadyResolved.
func (p *Pipeline) Resolve(ctx context.Context, callerID, itemID int64, matchID *int64, resolutionType string) error {
	if !model.ValidResolution(resolutionType) {
		return fmt.Errorf("%w: %q", ErrInvalidResolution, resolutionType)
	}

	counterpart, err := store.ResolveItem(ctx, p.DB, callerID, itemID, matchID, resolutionType)
	if err != nil {
		return err
	}

	if counterpart != nil {
		p.notifyResolved(ctx, itemID, counterpart)
	}
	return nil
}

// notifyResolved tells the counterpart's owner their item has been matched.
// Failures are logged, never surfaced: the resolution is already committed.
func (p *Pipeline) notifyResolved(ctx context.Context, itemID int64, counterpart *model.Item) {
	tokens, err := store.GetDeviceTokens(ctx, p.DB, counterpart.OwnerID)
	if err != nil {
		slog.Error("failed to load counterpart tokens", "item_id", counterpart.ID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	msg := notify.Message{
		Title: "Your item has been matched!",
		Body:  fmt.Sprintf("Your %s item %q has been matched with another user.", counterpart.Type, counterpart.Title),
		Data: map[string]string{
			"item_id":         strconv.FormatInt(counterpart.ID, 10),
			"match_id":        strconv.FormatInt(itemID, 10),
			"resolution_type": model.ResolutionMatched,
		},
		Tokens: tokens,
	}
	if err := p.Sender.Send(ctx, msg); err != nil {
		slog.Error("failed to notify counterpart owner", "item_id", counterpart.ID, "error", err)
	}
}
