package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls     atomic.Int32
	release   chan struct{}
	reviewers []Reviewer
	managers  map[string]Reviewer
}

func (f *fakeStore) ListEligible(ctx context.Context, organizationID, excludeID string) ([]Reviewer, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	out := []Reviewer{}
	for _, r := range f.reviewers {
		if r.OrganizationID == organizationID && r.ID != excludeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Lookup(ctx context.Context, reviewerID string) (Reviewer, error) {
	for _, r := range f.reviewers {
		if r.ID == reviewerID {
			return r, nil
		}
	}
	return Reviewer{}, fmt.Errorf("%w: %s", ErrReviewerNotFound, reviewerID)
}

func (f *fakeStore) ManagerOf(ctx context.Context, employeeID string) (Reviewer, error) {
	if r, ok := f.managers[employeeID]; ok {
		return r, nil
	}
	return Reviewer{}, fmt.Errorf("%w: no manager for %s", ErrReviewerNotFound, employeeID)
}

func sampleReviewers() []Reviewer {
	return []Reviewer{
		{ID: "r1", Name: "Ada", Role: "manager", OrganizationID: "org"},
		{ID: "r2", Name: "Grace", Role: "hr", OrganizationID: "org"},
		{ID: "r3", Name: "Linus", Role: "manager", OrganizationID: "other"},
	}
}

func TestDirectoryListEligibleExcludes(t *testing.T) {
	dir := NewDirectory(&fakeStore{reviewers: sampleReviewers()})

	got, err := dir.ListEligible(context.Background(), "org", "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

func TestDirectoryListEligibleSharesConcurrentCalls(t *testing.T) {
	store := &fakeStore{reviewers: sampleReviewers(), release: make(chan struct{})}
	dir := NewDirectory(store)

	var wg sync.WaitGroup
	results := make([][]Reviewer, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := dir.ListEligible(context.Background(), "org", "")
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}
	for store.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.Less(t, store.calls.Load(), int32(len(results)))
	for _, out := range results {
		assert.Len(t, out, 2)
	}
	results[0][0].Name = "mutated"
	assert.NotEqual(t, "mutated", results[1][0].Name)
}

func TestDirectoryLookupAndDefault(t *testing.T) {
	store := &fakeStore{reviewers: sampleReviewers(), managers: map[string]Reviewer{"e1": sampleReviewers()[0]}}
	dir := NewDirectory(store)

	r, err := dir.Lookup(context.Background(), "r2")
	require.NoError(t, err)
	assert.Equal(t, "Grace", r.Name)

	_, err = dir.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReviewerNotFound)

	m, err := dir.DefaultReviewer(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "r1", m.ID)

	_, err = dir.DefaultReviewer(context.Background(), "e2")
	assert.ErrorIs(t, err, ErrReviewerNotFound)
}
