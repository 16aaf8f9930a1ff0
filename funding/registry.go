package funding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heart2help/fundclient/pkg/ethunit"
)

// Registry materializes the contract's campaign records into an ordered
// local listing.
type Registry struct {
	contract Contract
	log      *slog.Logger
}

func NewRegistry(contract Contract, log *slog.Logger) *Registry {
	return &Registry{contract: contract, log: log}
}

// Listing is the result of one full enumeration.
type Listing struct {
	Campaigns []Campaign
	Skipped   int // records dropped because they failed to read or decode
}

// LoadAll enumerates every campaign record in ascending index order. A
// record that fails to read or decode is logged and skipped rather than
// aborting the whole listing, so the result is best-effort and possibly
// incomplete. Pure read: nothing is written back, and the caller replaces
// its view atomically with the returned listing.
func (r *Registry) LoadAll(ctx context.Context) (Listing, error) {
	count, err := r.contract.CampaignCount(ctx)
	if err != nil {
		return Listing{}, &BoundaryError{Op: "reading campaign count", Err: err}
	}

	listing := Listing{Campaigns: make([]Campaign, 0, count)}
	for i := uint64(0); i < count; i++ {
		c, err := r.loadOne(ctx, i)
		if err != nil {
			// a cancelled context would fail every remaining index;
			// that is an aborted load, not a run of bad records
			if ctx.Err() != nil {
				return Listing{}, ctx.Err()
			}
			r.log.WarnContext(ctx, "Skipping malformed campaign record",
				slog.Uint64("index", i),
				slog.Any("error", err),
			)
			listing.Skipped++
			continue
		}
		listing.Campaigns = append(listing.Campaigns, c)
	}
	return listing, nil
}

func (r *Registry) loadOne(ctx context.Context, index uint64) (Campaign, error) {
	rec, err := r.contract.CampaignAt(ctx, index)
	if err != nil {
		return Campaign{}, fmt.Errorf("reading record: %w", err)
	}
	name, err := ethunit.DecodeName(rec.Name)
	if err != nil {
		return Campaign{}, err
	}
	deadline, err := ethunit.DeadlineTime(rec.Deadline)
	if err != nil {
		return Campaign{}, err
	}
	return Campaign{
		ID:        index,
		Name:      name,
		Goal:      rec.Goal,
		Collected: rec.Collected,
		Deadline:  deadline,
	}, nil
}
