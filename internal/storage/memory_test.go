package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	st := NewMemoryStorage()
	ctx := context.Background()

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() missing key err = %v, want ErrKeyNotFound", err)
	}

	if err := st.Set(ctx, KeyUsers, []byte(`[]`)); err != nil {
		t.Fatalf("Set(): %v", err)
	}

	got, err := st.Get(ctx, KeyUsers)

	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if !bytes.Equal(got, []byte(`[]`)) {
		t.Fatalf("Get() = %q, want %q", got, `[]`)
	}

	if err := st.Remove(ctx, KeyUsers); err != nil {
		t.Fatalf("Remove(): %v", err)
	}
	if _, err := st.Get(ctx, KeyUsers); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() after remove err = %v, want ErrKeyNotFound", err)
	}

	// removing a missing key is a no-op
	if err := st.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove() missing key err = %v, want nil", err)
	}
}

func TestMemoryStorageCopiesValues(t *testing.T) {
	st := NewMemoryStorage()
	ctx := context.Background()

	in := []byte("original")

	if err := st.Set(ctx, KeyAuth, in); err != nil {
		t.Fatalf("Set(): %v", err)
	}

	// mutating the caller's slice must not leak into the store
	in[0] = 'X'

	out, err := st.Get(ctx, KeyAuth)

	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if string(out) != "original" {
		t.Fatalf("stored value mutated through caller slice: %q", out)
	}

	// mutating the returned slice must not leak back either
	out[0] = 'Y'

	again, err := st.Get(ctx, KeyAuth)

	if err != nil {
		t.Fatalf("second Get(): %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}
