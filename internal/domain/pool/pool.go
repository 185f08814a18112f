// Package pool holds the append-only collection of generated media sets.
package pool

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/model"
)

// Pool is an immutable, ordered collection of media sets.
// Every mutation returns a new Pool and leaves the receiver untouched.
type Pool struct {
	sets []model.MediaSet
}

// New creates a pool from sets, in order.
func New(sets ...model.MediaSet) Pool {
	out := make([]model.MediaSet, len(sets))
	for i, set := range sets {
		out[i] = cloneSet(set)
	}
	return Pool{sets: out}
}

// Len returns the number of sets.
func (p Pool) Len() int { return len(p.sets) }

// Sets returns a copy of the sets in pool order.
func (p Pool) Sets() []model.MediaSet {
	out := make([]model.MediaSet, len(p.sets))
	for i, set := range p.sets {
		out[i] = cloneSet(set)
	}
	return out
}

// Set returns the set with id.
func (p Pool) Set(id uuid.UUID) (model.MediaSet, bool) {
	for _, set := range p.sets {
		if set.ID == id {
			return cloneSet(set), true
		}
	}
	return model.MediaSet{}, false
}

// Append adds set at the end of the pool.
func (p Pool) Append(set model.MediaSet) Pool {
	out := make([]model.MediaSet, len(p.sets), len(p.sets)+1)
	copy(out, p.sets)
	return Pool{sets: append(out, cloneSet(set))}
}

// Remove drops the set with id.
func (p Pool) Remove(id uuid.UUID) (Pool, error) {
	for i, set := range p.sets {
		if set.ID != id {
			continue
		}
		out := make([]model.MediaSet, 0, len(p.sets)-1)
		out = append(out, p.sets[:i]...)
		out = append(out, p.sets[i+1:]...)
		return Pool{sets: out}, nil
	}
	return p, ErrSetNotFound
}

// Lookup resolves ref. A malformed or stale ref is simply not found.
func (p Pool) Lookup(ref model.MediaRef) (model.MediaItem, bool) {
	setID, index, err := ref.Parse()
	if err != nil {
		return model.MediaItem{}, false
	}
	for _, set := range p.sets {
		if set.ID == setID {
			return set.Item(index)
		}
	}
	return model.MediaItem{}, false
}

// PatchItemURL replaces the URL of the item behind ref.
// It is the only mutation a stored set ever receives.
func (p Pool) PatchItemURL(ref model.MediaRef, url string) (Pool, model.MediaSet, error) {
	setID, index, err := ref.Parse()
	if err != nil {
		return p, model.MediaSet{}, fmt.Errorf("%w: %v", ErrRefNotFound, err)
	}

	for i, set := range p.sets {
		if set.ID != setID {
			continue
		}
		patched := cloneSet(set)
		for j := range patched.Items {
			if patched.Items[j].Index != index {
				continue
			}
			patched.Items[j].URL = url

			out := make([]model.MediaSet, len(p.sets))
			copy(out, p.sets)
			out[i] = patched
			return Pool{sets: out}, cloneSet(patched), nil
		}
		return p, model.MediaSet{}, ErrRefNotFound
	}
	return p, model.MediaSet{}, ErrRefNotFound
}

// Refs returns every item ref in pool order.
func (p Pool) Refs() []model.MediaRef {
	var refs []model.MediaRef
	for _, set := range p.sets {
		for _, item := range set.Items {
			refs = append(refs, model.NewMediaRef(set.ID, item.Index))
		}
	}
	return refs
}

// FoldBatch turns the successful jobs of a batch into one media set.
// It returns false when the batch produced nothing.
func FoldBatch(result *generation.BatchResult, provider string, now time.Time) (model.MediaSet, bool) {
	if result == nil || len(result.Succeeded) == 0 {
		return model.MediaSet{}, false
	}

	items := make([]model.MediaItem, len(result.Succeeded))
	for i, item := range result.Succeeded {
		item.Index = i
		if item.FixedDuration != nil {
			item.FixedDuration = model.Float64(*item.FixedDuration)
		}
		items[i] = item
	}

	return model.MediaSet{
		ID:           uuid.New(),
		SourcePrompt: items[0].Prompt,
		Items:        items,
		Provider:     provider,
		GeneratedAt:  now,
	}, true
}

func cloneSet(set model.MediaSet) model.MediaSet {
	items := make([]model.MediaItem, len(set.Items))
	copy(items, set.Items)
	set.Items = items
	return set
}
