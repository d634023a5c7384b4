package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/planinsta/internal/apperr"
)

// runProviderContract exercises the behaviour every backend must share.
func runProviderContract(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		data, rev, err := p.Read(ctx, "absent")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if data != nil || rev != "" {
			t.Errorf("Read(absent) = %q, %q; want nil, empty", data, rev)
		}
	})

	t.Run("create then swap", func(t *testing.T) {
		rev1, err := p.CompareAndSwap(ctx, "plans", "", []byte(`[1]`))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		data, rev, err := p.Read(ctx, "plans")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(data) != `[1]` || rev != rev1 {
			t.Fatalf("Read = %q, %q; want [1], %q", data, rev, rev1)
		}

		rev2, err := p.CompareAndSwap(ctx, "plans", rev1, []byte(`[1,2]`))
		if err != nil {
			t.Fatalf("swap: %v", err)
		}
		if rev2 == rev1 {
			t.Error("revision did not change")
		}
	})

	t.Run("stale revision conflicts", func(t *testing.T) {
		_, rev, _ := p.Read(ctx, "stale")
		if _, err := p.CompareAndSwap(ctx, "stale", rev, []byte(`"a"`)); err != nil {
			t.Fatalf("first write: %v", err)
		}
		_, err := p.CompareAndSwap(ctx, "stale", rev, []byte(`"b"`))
		if !errors.Is(err, apperr.ErrConflict) {
			t.Fatalf("stale write err = %v, want ErrConflict", err)
		}
		data, _, _ := p.Read(ctx, "stale")
		if string(data) != `"a"` {
			t.Errorf("slot = %q, want untouched \"a\"", data)
		}
	})

	t.Run("create conflicts when present", func(t *testing.T) {
		if _, err := p.CompareAndSwap(ctx, "dup", "", []byte(`1`)); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := p.CompareAndSwap(ctx, "dup", "", []byte(`2`)); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("second create err = %v, want ErrConflict", err)
		}
	})

	t.Run("concurrent swaps admit one winner", func(t *testing.T) {
		_, base, _ := p.Read(ctx, "race")
		const n = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := p.CompareAndSwap(ctx, "race", base, []byte{byte('a' + i)}); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("winners = %d, want 1", wins)
		}
	})

	t.Run("invalid keys rejected", func(t *testing.T) {
		for _, k := range []string{"", "../escape", "a/b", "has space"} {
			if _, _, err := p.Read(ctx, k); err == nil {
				t.Errorf("Read(%q) should fail", k)
			}
			if _, err := p.CompareAndSwap(ctx, k, "", []byte("x")); err == nil {
				t.Errorf("CompareAndSwap(%q) should fail", k)
			}
		}
	})
}
