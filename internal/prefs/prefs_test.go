package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/docaidkit/medkit/internal/storage"
)

func TestStoreGetDefaults(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage())

	p, err := store.Get(context.Background())

	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if p != Defaults() {
		t.Fatalf("Get() on empty store = %+v, want defaults", p)
	}
}

func TestStoreGetSanitizesStoredValues(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   Preferences
	}{
		{
			name:   "valid record round-trips",
			stored: `{"language":"ar","theme":"dark"}`,
			want:   Preferences{Language: LanguageArabic, Theme: ThemeDark},
		},
		{
			name:   "unknown language falls back",
			stored: `{"language":"fr","theme":"dark"}`,
			want:   Preferences{Language: LanguageEnglish, Theme: ThemeDark},
		},
		{
			name:   "unknown theme falls back",
			stored: `{"language":"ar","theme":"sepia"}`,
			want:   Preferences{Language: LanguageArabic, Theme: ThemeLight},
		},
		{
			name:   "garbage reads as defaults",
			stored: `not json`,
			want:   Defaults(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := storage.NewMemoryStorage()
			ctx := context.Background()

			if err := st.Set(ctx, storage.KeyPrefs, []byte(tc.stored)); err != nil {
				t.Fatalf("seed: %v", err)
			}

			p, err := NewStore(st).Get(ctx)

			if err != nil {
				t.Fatalf("Get(): %v", err)
			}
			if p != tc.want {
				t.Fatalf("Get() = %+v, want %+v", p, tc.want)
			}
		})
	}
}

func TestStoreSetPersistsAndPublishes(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage())
	ctx := context.Background()

	ch, cancel := store.Subscribe()
	defer cancel()

	want := Preferences{Language: LanguageArabic, Theme: ThemeDark}

	if err := store.Set(ctx, want); err != nil {
		t.Fatalf("Set(): %v", err)
	}

	got, err := store.Get(ctx)

	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got != want {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}

	select {
	case published := <-ch:
		if published != want {
			t.Fatalf("published %+v, want %+v", published, want)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the change")
	}
}

func TestStoreSubscribeCancel(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage())
	ctx := context.Background()

	ch, cancel := store.Subscribe()
	cancel()

	if err := store.Set(ctx, Preferences{Language: LanguageArabic, Theme: ThemeDark}); err != nil {
		t.Fatalf("Set(): %v", err)
	}

	select {
	case p := <-ch:
		t.Fatalf("cancelled subscriber still received %+v", p)
	default:
	}
}

func TestStoreSlowSubscriberNeverBlocks(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage())
	ctx := context.Background()

	// never drained; the buffered slot fills and later publishes drop
	_, cancel := store.Subscribe()
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_ = store.Set(ctx, Preferences{Language: LanguageEnglish, Theme: ThemeDark})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
