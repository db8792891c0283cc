package deck

import (
	"context"
	"testing"

	"github.com/slidex/slidex/pkg/kv"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	slides := []Slide{
		{Index: 0, Title: "Intro", HTML: "<section>Intro</section>"},
		{Index: 2, Title: "Close", HTML: "<section>Close</section>"},
		{Index: 1, Title: "Body", HTML: "<section>Body</section>"},
	}
	for _, s := range slides {
		if err := store.PutSlide(ctx, "sess-1", s); err != nil {
			t.Fatalf("PutSlide(%d) error = %v", s.Index, err)
		}
	}

	got, err := store.Slides(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Slides() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Slides()) = %d, want 3", len(got))
	}
	for i, s := range got {
		if s.Index != i {
			t.Fatalf("Slides()[%d].Index = %d, want %d", i, s.Index, i)
		}
	}

	// Sessions are isolated.
	other, err := store.Slides(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Slides(sess-2) error = %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("len(Slides(sess-2)) = %d, want 0", len(other))
	}
}

func TestStoreLargeIndexOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	// Indexes straddling a digit-count boundary must still come back in
	// numeric order.
	for _, i := range []int{10000, 2, 9999} {
		if err := store.PutSlide(ctx, "s", Slide{Index: i, Title: "t", HTML: "<b>x</b>"}); err != nil {
			t.Fatalf("PutSlide(%d) error = %v", i, err)
		}
	}
	got, err := store.Slides(ctx, "s")
	if err != nil {
		t.Fatalf("Slides() error = %v", err)
	}
	want := []int{2, 9999, 10000}
	if len(got) != len(want) {
		t.Fatalf("len(Slides()) = %d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Index != want[i] {
			t.Fatalf("Slides()[%d].Index = %d, want %d", i, s.Index, want[i])
		}
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	if err := store.PutSlide(ctx, "s", Slide{Index: 0, Title: "v1", HTML: "<b>1</b>"}); err != nil {
		t.Fatalf("PutSlide() error = %v", err)
	}
	if err := store.PutSlide(ctx, "s", Slide{Index: 0, Title: "v2", HTML: "<b>2</b>"}); err != nil {
		t.Fatalf("PutSlide() error = %v", err)
	}

	got, err := store.Slides(ctx, "s")
	if err != nil {
		t.Fatalf("Slides() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "v2" {
		t.Fatalf("Slides() = %+v, want single slide titled v2", got)
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	if err := store.PutSlide(ctx, "s", Slide{Index: 0, Title: "t", HTML: "<b>x</b>"}); err != nil {
		t.Fatalf("PutSlide() error = %v", err)
	}
	if err := store.Clear(ctx, "s"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	got, err := store.Slides(ctx, "s")
	if err != nil {
		t.Fatalf("Slides() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(Slides()) = %d after Clear, want 0", len(got))
	}
}
