package deck

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/slidex/slidex/pkg/kv"
)

// Store persists deck snapshots, keyed by session. Slides are written as
// they arrive; a late subscriber can replay the snapshot to catch up.
type Store struct {
	kv kv.Store
}

// NewStore wraps a key-value store with deck persistence.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// slideKey zero-pads the index so lexicographic key order is index order
// for any deck up to 10^8 slides.
func slideKey(session string, index int) kv.Key {
	return kv.Key{"deck", session, "slide", fmt.Sprintf("%08d", index)}
}

// PutSlide writes one slide into the session's snapshot, overwriting any
// earlier slide at the same index.
func (s *Store) PutSlide(ctx context.Context, session string, slide Slide) error {
	data, err := msgpack.Marshal(&slide)
	if err != nil {
		return fmt.Errorf("deck: encode slide %d: %w", slide.Index, err)
	}
	return s.kv.Set(ctx, slideKey(session, slide.Index), data)
}

// Slides returns the session's snapshot in index order.
func (s *Store) Slides(ctx context.Context, session string) ([]Slide, error) {
	var slides []Slide
	for ent, err := range s.kv.List(ctx, kv.Key{"deck", session, "slide"}) {
		if err != nil {
			return nil, err
		}
		var slide Slide
		if err := msgpack.Unmarshal(ent.Value, &slide); err != nil {
			return nil, fmt.Errorf("deck: decode slide %s: %w", ent.Key, err)
		}
		slides = append(slides, slide)
	}
	return slides, nil
}

// Clear removes the session's snapshot.
func (s *Store) Clear(ctx context.Context, session string) error {
	for ent, err := range s.kv.List(ctx, kv.Key{"deck", session, "slide"}) {
		if err != nil {
			return err
		}
		if err := s.kv.Delete(ctx, ent.Key); err != nil {
			return err
		}
	}
	return nil
}
