// Package match implements the matching core: proximity-filtered candidate
// search for newly reported items, the notification/record fanout, and the
// resolution transition that links a lost item to a found one.
package match

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/erazemk/najdeno/internal/geo"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
)

// MatchRadiusKm is the distance threshold for candidate pairing.
const MatchRadiusKm = 1.0

// Pipeline runs the matching flow for one item at a time. It is stateless
// between invocations; all coordination happens through the database.
type Pipeline struct {
	DB     *sql.DB
	Sender notify.Sender
	Radius float64
}

// New creates a pipeline with the default match radius.
func New(db *sql.DB, sender notify.Sender) *Pipeline {
	return &Pipeline{DB: db, Sender: sender, Radius: MatchRadiusKm}
}

// Outcome describes what happened for one candidate during fanout. The
// record write and the notification run independently, so each has its own
// error.
type Outcome struct {
	Candidate model.Item
	Recorded  bool
	Notified  bool
	RecordErr error
	NotifyErr error
}

// FindCandidates returns the unresolved opposite-type, same-category items
// within the match radius, excluding the reporter's own items, in store
// query order. Pure filtering: no side effects.
//
// A resolved input returns an empty result; new items are never pre-resolved
// in practice, but replayed triggers can deliver one.
func (p *Pipeline) FindCandidates(ctx context.Context, item *model.Item) ([]model.Item, error) {
	if item.IsResolved {
		return nil, nil
	}

	candidates, err := store.ListOpenCandidates(ctx, p.DB, model.OppositeType(item.Type), item.Category)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}

	var matches []model.Item
	for _, c := range candidates {
		if c.OwnerID == item.OwnerID {
			continue
		}
		distance, err := geo.Distance(item.Latitude, item.Longitude, c.Latitude, c.Longitude)
		if err != nil {
			slog.Warn("skipping candidate with invalid coordinates", "item_id", c.ID, "error", err)
			continue
		}
		if distance <= p.Radius {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// ProcessNewItem runs the full creation-triggered flow: find candidates,
// then for every candidate concurrently record a match and notify the
// candidate's owner. It returns once all sub-operations have settled;
// individual failures are isolated per candidate and reported in the
// outcomes, never aborting the rest.
//
// Only a failed candidate query fails the whole call; the trigger is
// expected to be redelivered in that case. Redelivery is harmless because
// match records deduplicate on the item pair.
func (p *Pipeline) ProcessNewItem(ctx context.Context, item *model.Item) ([]Outcome, error) {
	candidates, err := p.FindCandidates(ctx, item)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		slog.Info("no potential matches found", "item_id", item.ID)
		return nil, nil
	}

	outcomes := make([]Outcome, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		outcomes[i].Candidate = candidate

		wg.Add(2)
		go func() {
			defer wg.Done()
			created, err := store.UpsertMatch(ctx, p.DB, item.ID, candidate.ID, true)
			outcomes[i].Recorded = created
			outcomes[i].RecordErr = err
		}()
		go func() {
			defer wg.Done()
			notified, err := p.notifyCandidate(ctx, item.ID, candidate)
			outcomes[i].Notified = notified
			outcomes[i].NotifyErr = err
		}()
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.RecordErr != nil {
			slog.Error("failed to record match", "item_id", item.ID, "candidate_id", o.Candidate.ID, "error", o.RecordErr)
		}
		if o.NotifyErr != nil {
			slog.Error("failed to notify candidate owner", "item_id", item.ID, "candidate_id", o.Candidate.ID, "error", o.NotifyErr)
		}
	}
	slog.Info("matching complete", "item_id", item.ID, "matches", len(outcomes))
	return outcomes, nil
}

// notifyCandidate sends a push notification to the candidate's owner. Owners
// without registered tokens are skipped silently. Returns whether a delivery
// was attempted.
func (p *Pipeline) notifyCandidate(ctx context.Context, sourceItemID int64, candidate model.Item) (bool, error) {
	tokens, err := store.GetDeviceTokens(ctx, p.DB, candidate.OwnerID)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}

	title := "Someone may have lost what you found"
	if candidate.Type == model.TypeLost {
		title = "Potential match for your lost item"
	}

	msg := notify.Message{
		Title: title,
		Body:  fmt.Sprintf("There's a potential match for %q", candidate.Title),
		Data: map[string]string{
			"item_id":  strconv.FormatInt(candidate.ID, 10),
			"match_id": strconv.FormatInt(sourceItemID, 10),
		},
		Tokens: tokens,
	}
	if err := p.Sender.Send(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}
