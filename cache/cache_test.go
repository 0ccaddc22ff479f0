package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetOrCreateOnce(t *testing.T) {
	c := NewSharded[string, int](StringHasher)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCreate("kernel", func() (int, error) {
				calls.Add(1)
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("GetOrCreate = %d, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("create called %d times, want 1", n)
	}
	st := c.Stats()
	if st.Misses != 1 || st.Hits != 31 || st.Len != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestGetOrCreateErrorNotStored(t *testing.T) {
	c := NewSharded[string, int](StringHasher)
	boom := errors.New("boom")

	if _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("failed create stored a value")
	}
	v, err := c.GetOrCreate("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("retry = %d, %v", v, err)
	}
}

func TestRangeDeleteClear(t *testing.T) {
	c := NewSharded[uint64, string](Uint64Hasher)
	for i := range uint64(40) {
		_, _ = c.GetOrCreate(i, func() (string, error) { return strconv.FormatUint(i, 10), nil })
	}
	if c.Len() != 40 {
		t.Fatalf("Len() = %d, want 40", c.Len())
	}

	seen := 0
	c.Range(func(k uint64, v string) bool {
		if v != strconv.FormatUint(k, 10) {
			t.Errorf("entry %d = %q", k, v)
		}
		seen++
		return true
	})
	if seen != 40 {
		t.Errorf("Range visited %d, want 40", seen)
	}

	stopped := 0
	c.Range(func(uint64, string) bool {
		stopped++
		return false
	})
	if stopped != 1 {
		t.Errorf("Range after false visited %d, want 1", stopped)
	}

	if !c.Delete(3) || c.Delete(3) {
		t.Error("Delete should succeed once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}
