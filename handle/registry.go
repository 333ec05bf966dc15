// Package handle keeps native resources behind opaque integer handles.
//
// A Handle packs a slot index and the slot's generation. Releasing a handle
// bumps the generation, so a stale handle never resolves to whatever later
// occupies the same slot. Operations take a Lease, which holds its own
// reference to the resource: Release removes the handle at once, and the
// resource is closed when the last lease ends.
package handle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"portbridge/internal/metrics"
	"portbridge/logger"
)

// Handle is an opaque token for a registered resource. Zero is never issued.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) split() (index, gen uint32, ok bool) {
	low := uint32(h)
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(h >> 32), true
}

var (
	// ErrInvalidHandle is returned for a handle this registry never issued.
	ErrInvalidHandle = errors.New("handle: invalid handle")
	// ErrReleased is returned for a handle that has already been released.
	ErrReleased = errors.New("handle: released")
	// ErrRegistryClosed is returned by Insert after Close.
	ErrRegistryClosed = errors.New("handle: registry closed")
)

// entry is the shared state of one resource. refs counts the registry's
// own reference plus every live lease.
type entry[T any] struct {
	value T
	refs  atomic.Int64
}

type slot[T any] struct {
	gen   uint32
	entry *entry[T]
}

// Registry maps handles to resources of type T.
type Registry[T any] struct {
	kind    string
	closeFn func(T) error
	log     *logger.Entry

	mu     sync.Mutex
	slots  []slot[T]
	free   []uint32
	live   int
	closed bool
}

// New returns an empty registry. closeFn, when non-nil, runs exactly once per
// resource after its handle is released and its last lease has ended.
func New[T any](kind string, closeFn func(T) error) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		closeFn: closeFn,
		log:     logger.GetLogger().WithComponent("handle_registry").WithField("kind", kind),
	}
}

// Create builds a resource with factory and registers it. When factory
// fails no handle is issued.
func (r *Registry[T]) Create(factory func() (T, error)) (Handle, error) {
	v, err := factory()
	if err != nil {
		return 0, err
	}
	h, err := r.Insert(v)
	if err != nil {
		r.closeValue(v)
		return 0, err
	}
	return h, nil
}

// Insert registers v and returns its handle.
func (r *Registry[T]) Insert(v T) (Handle, error) {
	e := &entry[T]{value: v}
	e.refs.Store(1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrRegistryClosed
	}
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot[T]{gen: 1})
	}
	s := &r.slots[index]
	s.entry = e
	h := makeHandle(index, s.gen)
	r.live++
	live := r.live
	r.mu.Unlock()

	metrics.HandleCreated(r.kind)
	r.log.WithFields(logger.Fields{"handle": uint64(h), "live": live}).Debug("handle created")
	return h, nil
}

// lookup resolves h to its slot. The caller holds r.mu.
func (r *Registry[T]) lookup(h Handle) (*slot[T], error) {
	index, gen, ok := h.split()
	if !ok || int(index) >= len(r.slots) {
		return nil, ErrInvalidHandle
	}
	s := &r.slots[index]
	if gen > s.gen || gen == 0 {
		return nil, ErrInvalidHandle
	}
	if gen < s.gen || s.entry == nil {
		return nil, ErrReleased
	}
	return s, nil
}

// Acquire takes a lease on the resource behind h. The lease stays valid even
// if h is released meanwhile.
func (r *Registry[T]) Acquire(h Handle) (*Lease[T], error) {
	r.mu.Lock()
	s, err := r.lookup(h)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%s %d: %w", r.kind, uint64(h), err)
	}
	e := s.entry
	e.refs.Add(1)
	r.mu.Unlock()
	return &Lease[T]{registry: r, entry: e}, nil
}

// With runs fn with the resource behind h under a lease.
func (r *Registry[T]) With(h Handle, fn func(T) error) error {
	lease, err := r.Acquire(h)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease.Value())
}

// Release invalidates h. It never waits for in-flight leases; the resource is
// closed once they end. A second Release of the same handle returns ErrReleased.
func (r *Registry[T]) Release(h Handle) error {
	r.mu.Lock()
	s, err := r.lookup(h)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("%s %d: %w", r.kind, uint64(h), err)
	}
	e := s.entry
	r.retire(h)
	live := r.live
	r.mu.Unlock()

	metrics.HandleReleased(r.kind)
	r.log.WithFields(logger.Fields{"handle": uint64(h), "live": live}).Debug("handle released")
	r.unref(e)
	return nil
}

// retire empties the slot of h. The caller holds r.mu and has checked h.
func (r *Registry[T]) retire(h Handle) {
	index, _, _ := h.split()
	s := &r.slots[index]
	s.entry = nil
	s.gen++
	r.live--
	// a slot whose generation wrapped is never reused
	if s.gen != 0 {
		r.free = append(r.free, index)
	}
}

func (r *Registry[T]) unref(e *entry[T]) {
	if e.refs.Add(-1) == 0 {
		r.closeValue(e.value)
	}
}

func (r *Registry[T]) closeValue(v T) {
	if r.closeFn == nil {
		return
	}
	if err := r.closeFn(v); err != nil {
		r.log.WithError(err).Warn("failed to close resource")
	}
}

// Len reports the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Close releases every live handle and rejects further inserts.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var retired []*entry[T]
	for i := range r.slots {
		s := &r.slots[i]
		if s.entry == nil {
			continue
		}
		retired = append(retired, s.entry)
		r.retire(makeHandle(uint32(i), s.gen))
	}
	r.mu.Unlock()

	for _, e := range retired {
		metrics.HandleReleased(r.kind)
		r.unref(e)
	}
	if len(retired) > 0 {
		r.log.WithField("released", len(retired)).Info("registry closed with live handles")
	}
}

// Lease is a counted reference to a registered resource.
type Lease[T any] struct {
	registry *Registry[T]
	entry    *entry[T]
	done     atomic.Bool
}

func (l *Lease[T]) Value() T {
	return l.entry.value
}

// Release ends the lease. Extra calls are no-ops.
func (l *Lease[T]) Release() {
	if l.done.CompareAndSwap(false, true) {
		l.registry.unref(l.entry)
	}
}
