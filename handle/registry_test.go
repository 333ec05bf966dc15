package handle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type resource struct {
	name   string
	closed atomic.Int32
}

func newTestRegistry() *Registry[*resource] {
	return New("test", func(r *resource) error {
		r.closed.Add(1)
		return nil
	})
}

func TestCreateReleaseRejectsLaterUse(t *testing.T) {
	reg := newTestRegistry()
	res := &resource{name: "a"}
	h, err := reg.Insert(res)
	if err != nil || h == 0 {
		t.Fatalf("insert: %v, %d", err, h)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d", reg.Len())
	}
	if err := reg.With(h, func(r *resource) error {
		if r != res {
			t.Fatal("wrong resource")
		}
		return nil
	}); err != nil {
		t.Fatalf("with: %v", err)
	}

	if err := reg.Release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if res.closed.Load() != 1 {
		t.Fatalf("resource closed %d times", res.closed.Load())
	}
	if _, err := reg.Acquire(h); !errors.Is(err, ErrReleased) {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := reg.Release(h); !errors.Is(err, ErrReleased) {
		t.Fatalf("second release: %v", err)
	}
	if res.closed.Load() != 1 {
		t.Fatal("second release must not close again")
	}
	if reg.Len() != 0 {
		t.Fatalf("len = %d", reg.Len())
	}
}

func TestInvalidHandles(t *testing.T) {
	reg := newTestRegistry()
	h, _ := reg.Insert(&resource{})
	for _, bad := range []Handle{0, h + 1, makeHandle(0, 7), makeHandle(99, 1)} {
		if _, err := reg.Acquire(bad); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("handle %d: expected ErrInvalidHandle, got %v", bad, err)
		}
	}
}

func TestSlotReuseChangesHandle(t *testing.T) {
	reg := newTestRegistry()
	first, _ := reg.Insert(&resource{name: "first"})
	reg.Release(first)
	second, _ := reg.Insert(&resource{name: "second"})

	if first == second {
		t.Fatal("released handle value was reissued")
	}
	fi, _, _ := first.split()
	si, _, _ := second.split()
	if fi != si {
		t.Fatalf("expected slot reuse, got %d and %d", fi, si)
	}
	if _, err := reg.Acquire(first); !errors.Is(err, ErrReleased) {
		t.Fatalf("stale handle resolved: %v", err)
	}
	lease, err := reg.Acquire(second)
	if err != nil || lease.Value().name != "second" {
		t.Fatalf("second handle: %v", err)
	}
	lease.Release()
}

func TestReleaseDefersCloseUntilLeaseEnds(t *testing.T) {
	reg := newTestRegistry()
	res := &resource{}
	h, _ := reg.Insert(res)

	lease, err := reg.Acquire(h)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Release(h); err != nil {
		t.Fatal(err)
	}
	if res.closed.Load() != 0 {
		t.Fatal("resource closed while a lease was held")
	}
	if lease.Value() != res {
		t.Fatal("lease lost its resource")
	}
	lease.Release()
	lease.Release()
	if res.closed.Load() != 1 {
		t.Fatalf("resource closed %d times, want 1", res.closed.Load())
	}
}

func TestCreateFactoryError(t *testing.T) {
	reg := newTestRegistry()
	boom := errors.New("bad credentials")
	h, err := reg.Create(func() (*resource, error) { return nil, boom })
	if !errors.Is(err, boom) || h != 0 {
		t.Fatalf("expected factory error and no handle, got %d, %v", h, err)
	}
	if reg.Len() != 0 {
		t.Fatal("failed create must not register anything")
	}
}

func TestCloseReleasesAll(t *testing.T) {
	reg := newTestRegistry()
	a, b := &resource{}, &resource{}
	reg.Insert(a)
	hb, _ := reg.Insert(b)
	lease, _ := reg.Acquire(hb)

	reg.Close()
	if a.closed.Load() != 1 || b.closed.Load() != 0 {
		t.Fatalf("unexpected close counts: %d %d", a.closed.Load(), b.closed.Load())
	}
	lease.Release()
	if b.closed.Load() != 1 {
		t.Fatal("leased resource not closed after lease ended")
	}
	if _, err := reg.Insert(&resource{}); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("insert after close: %v", err)
	}
	if _, err := reg.Create(func() (*resource, error) { return &resource{}, nil }); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("create after close: %v", err)
	}
}

func TestConcurrentAcquireAndRelease(t *testing.T) {
	reg := newTestRegistry()
	res := &resource{}
	h, _ := reg.Insert(res)

	var wg sync.WaitGroup
	var acquired atomic.Int64
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := reg.Acquire(h)
			if err != nil {
				if !errors.Is(err, ErrReleased) {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			acquired.Add(1)
			if res.closed.Load() != 0 {
				t.Error("resource closed under a live lease")
			}
			lease.Release()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reg.Release(h)
	}()
	wg.Wait()

	if res.closed.Load() != 1 {
		t.Fatalf("resource closed %d times, want 1", res.closed.Load())
	}
}
