// Package selection keeps an ordered, duplicate-free list of media refs.
package selection

import "github.com/uniedit/reelgen/internal/model"

// Resolver looks up media items by ref.
type Resolver interface {
	Lookup(ref model.MediaRef) (model.MediaItem, bool)
}

// Selection is an ordered set of refs. Order is the video order.
// Every operation returns a new Selection.
type Selection struct {
	refs []model.MediaRef
}

// New builds a selection from refs, dropping duplicates.
func New(refs ...model.MediaRef) Selection {
	return Selection{}.SetAll(refs)
}

// Refs returns a copy of the refs in order.
func (s Selection) Refs() []model.MediaRef {
	return append([]model.MediaRef(nil), s.refs...)
}

// Len returns the number of refs.
func (s Selection) Len() int { return len(s.refs) }

// IndexOf returns the position of ref, or -1.
func (s Selection) IndexOf(ref model.MediaRef) int {
	for i, r := range s.refs {
		if r == ref {
			return i
		}
	}
	return -1
}

// Contains reports whether ref is selected.
func (s Selection) Contains(ref model.MediaRef) bool {
	return s.IndexOf(ref) >= 0
}

// Toggle removes ref if present, otherwise appends it at the end.
func (s Selection) Toggle(ref model.MediaRef) Selection {
	if s.Contains(ref) {
		return s.Remove(ref)
	}
	out := make([]model.MediaRef, len(s.refs), len(s.refs)+1)
	copy(out, s.refs)
	return Selection{refs: append(out, ref)}
}

// MoveUp swaps ref with its predecessor. No-op at the front or when absent.
func (s Selection) MoveUp(ref model.MediaRef) Selection {
	i := s.IndexOf(ref)
	if i <= 0 {
		return s
	}
	return s.swap(i, i-1)
}

// MoveDown swaps ref with its successor. No-op at the back or when absent.
func (s Selection) MoveDown(ref model.MediaRef) Selection {
	i := s.IndexOf(ref)
	if i < 0 || i == len(s.refs)-1 {
		return s
	}
	return s.swap(i, i+1)
}

// Remove drops ref. No-op when absent.
func (s Selection) Remove(ref model.MediaRef) Selection {
	i := s.IndexOf(ref)
	if i < 0 {
		return s
	}
	out := make([]model.MediaRef, 0, len(s.refs)-1)
	out = append(out, s.refs[:i]...)
	out = append(out, s.refs[i+1:]...)
	return Selection{refs: out}
}

// SetAll replaces the selection with refs. Later duplicates are dropped.
func (s Selection) SetAll(refs []model.MediaRef) Selection {
	seen := make(map[model.MediaRef]struct{}, len(refs))
	out := make([]model.MediaRef, 0, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return Selection{refs: out}
}

// Clear returns an empty selection.
func (s Selection) Clear() Selection {
	return Selection{}
}

// Resolve returns the selected items in order. Refs that no longer resolve
// are skipped.
func (s Selection) Resolve(r Resolver) []model.ResolvedItem {
	out := make([]model.ResolvedItem, 0, len(s.refs))
	for _, ref := range s.refs {
		item, ok := r.Lookup(ref)
		if !ok {
			continue
		}
		out = append(out, model.ResolvedItem{Ref: ref, Item: item})
	}
	return out
}

// Prune drops refs that no longer resolve.
func (s Selection) Prune(r Resolver) Selection {
	out := make([]model.MediaRef, 0, len(s.refs))
	for _, ref := range s.refs {
		if _, ok := r.Lookup(ref); ok {
			out = append(out, ref)
		}
	}
	return Selection{refs: out}
}

func (s Selection) swap(i, j int) Selection {
	out := s.Refs()
	out[i], out[j] = out[j], out[i]
	return Selection{refs: out}
}
