package selector

import (
	"strings"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
)

// TagIndex is the inverted index from tag name to matching entities. It
// self-maintains by observing Tags behavior lifecycle on the store; nothing
// polls it. Tag names are normalized to lowercase at registration, so
// matching is case-insensitive.
type TagIndex struct {
	store    *entity.Store
	reporter *diag.Reporter

	sets  map[string]Bitset
	names [][]string // per-entity registered tags, pre-sized outer array

	onChange []func(tag string)

	prev []string // update-diff scratch
}

// NewTagIndex builds the index and subscribes it to the store's Tags
// lifecycle, deactivation, scene-reset, and shutdown events.
func NewTagIndex(store *entity.Store, reporter *diag.Reporter) *TagIndex {
	ti := &TagIndex{
		store:    store,
		reporter: reporter,
		sets:     make(map[string]Bitset),
		names:    make([][]string, store.Capacity()),
	}

	entity.OnAdded(store, func(e entity.Index, t *entity.Tags) {
		for _, name := range t.Names {
			ti.Register(e, name)
		}
	})
	entity.OnUpdating(store, func(e entity.Index, t *entity.Tags) {
		ti.prev = append(ti.prev[:0], ti.names[e]...)
	})
	entity.OnUpdated(store, func(e entity.Index, t *entity.Tags) {
		ti.applyDiff(e, t.Names)
	})
	entity.OnRemoving(store, func(e entity.Index, t *entity.Tags) {
		ti.unregisterAll(e)
	})
	store.OnDeactivating(func(e entity.Index) {
		ti.unregisterAll(e)
	})
	store.OnSceneReset(func() {
		ti.clearPartition(entity.Index(store.GlobalCapacity()), entity.Index(store.Capacity()))
	})
	store.OnShutdown(func() {
		ti.clearPartition(0, entity.Index(store.Capacity()))
	})

	return ti
}

// OnChange subscribes to membership changes of any tag. The callback runs
// once per tag whose entity set changed.
func (ti *TagIndex) OnChange(fn func(tag string)) {
	ti.onChange = append(ti.onChange, fn)
}

// NormalizeTag lowercases a tag name and reports whether the result is a
// valid tag: non-empty, characters limited to [a-z0-9_-].
func NormalizeTag(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	name = strings.ToLower(name)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '-' {
			continue
		}
		return name, false
	}
	return name, true
}

// Register adds one tag to an entity. Invalid names and duplicates within
// the same entity are rejected individually: one diagnostic, the rest of
// the entity's tags are unaffected. Returns whether membership changed.
func (ti *TagIndex) Register(e entity.Index, name string) bool {
	tag, ok := NormalizeTag(name)
	if !ok {
		ti.reporter.Report("invalid tag rejected", "tag", name, "entity", int(e))
		return false
	}
	for _, existing := range ti.names[e] {
		if existing == tag {
			ti.reporter.Report("duplicate tag rejected", "tag", tag, "entity", int(e))
			return false
		}
	}

	set, exists := ti.sets[tag]
	if !exists {
		set = NewBitset(ti.store.Capacity())
		ti.sets[tag] = set
	}
	set.Set(e)
	ti.names[e] = append(ti.names[e], tag)
	ti.changed(tag)
	return true
}

// Unregister removes one tag from an entity. Returns whether membership
// changed.
func (ti *TagIndex) Unregister(e entity.Index, name string) bool {
	tag, ok := NormalizeTag(name)
	if !ok {
		return false
	}
	regs := ti.names[e]
	for i, existing := range regs {
		if existing != tag {
			continue
		}
		regs[i] = regs[len(regs)-1]
		ti.names[e] = regs[:len(regs)-1]
		ti.sets[tag].Clear(e)
		ti.changed(tag)
		return true
	}
	return false
}

// Resolve returns the entity set for a tag. The second result is false
// when the tag has never been registered; a missing tag is not an error.
func (ti *TagIndex) Resolve(name string) (Bitset, bool) {
	tag, ok := NormalizeTag(name)
	if !ok {
		return Bitset{}, false
	}
	set, exists := ti.sets[tag]
	return set, exists
}

// TagsOf returns the entity's registered tags. The slice is owned by the
// index; callers must not hold or mutate it.
func (ti *TagIndex) TagsOf(e entity.Index) []string {
	return ti.names[e]
}

// applyDiff reconciles registrations after a Tags behavior update, firing
// change events only for tags whose membership actually moved.
func (ti *TagIndex) applyDiff(e entity.Index, now []string) {
	for _, old := range ti.prev {
		if !containsNormalized(now, old) {
			ti.Unregister(e, old)
		}
	}
	for _, name := range now {
		tag, ok := NormalizeTag(name)
		if ok && containsTag(ti.prev, tag) {
			continue
		}
		ti.Register(e, name)
	}
}

func (ti *TagIndex) unregisterAll(e entity.Index) {
	regs := ti.names[e]
	for _, tag := range regs {
		ti.sets[tag].Clear(e)
		ti.changed(tag)
	}
	ti.names[e] = regs[:0]
}

// clearPartition wipes a partition range from every tag set directly and
// resets the reverse entries. No per-tag change events fire; the selector
// registry reacts to the partition event itself.
func (ti *TagIndex) clearPartition(lo, hi entity.Index) {
	for _, set := range ti.sets {
		set.ClearRange(lo, hi)
	}
	for e := lo; e < hi; e++ {
		if ti.names[e] != nil {
			ti.names[e] = ti.names[e][:0]
		}
	}
}

func (ti *TagIndex) changed(tag string) {
	for _, fn := range ti.onChange {
		fn(tag)
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func containsNormalized(names []string, tag string) bool {
	for _, name := range names {
		if normalized, ok := NormalizeTag(name); ok && normalized == tag {
			return true
		}
	}
	return false
}
