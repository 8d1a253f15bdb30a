package core

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Directory answers reviewer queries for the workflow. Identical concurrent
// listings share one store round trip.
type Directory struct {
	store StoreAPI
	group singleflight.Group
}

func NewDirectory(store StoreAPI) *Directory {
	return &Directory{store: store}
}

func (d *Directory) ListEligible(ctx context.Context, organizationID, excludeID string) ([]Reviewer, error) {
	key := organizationID + "|" + excludeID
	v, err, _ := d.group.Do(key, func() (any, error) {
		return d.store.ListEligible(ctx, organizationID, excludeID)
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]Reviewer)
	out := make([]Reviewer, len(shared))
	copy(out, shared)
	return out, nil
}

func (d *Directory) Lookup(ctx context.Context, reviewerID string) (Reviewer, error) {
	return d.store.Lookup(ctx, reviewerID)
}

// DefaultReviewer resolves who first receives a newly submitted request.
func (d *Directory) DefaultReviewer(ctx context.Context, employeeID string) (Reviewer, error) {
	return d.store.ManagerOf(ctx, employeeID)
}
