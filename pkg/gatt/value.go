package gatt

import (
	"fmt"
	"sync"
)

// ValueStore is the byte buffer behind a characteristic or descriptor value.
// The definition and its registered handle share one *ValueStore; every
// access goes through the same mutex, reads and writes alike.
//
// A panic inside a guarded section poisons the store: the panic is recovered
// and that operation and every later one fail with ErrLockFailed.
type ValueStore struct {
	mu       sync.Mutex
	data     []byte
	poisoned bool
}

// NewValueStore returns a store holding a copy of initial.
func NewValueStore(initial []byte) *ValueStore {
	data := make([]byte, len(initial))
	copy(data, initial)
	return &ValueStore{data: data}
}

// guard runs fn with the lock held.
func (v *ValueStore) guard(fn func() error) (err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.poisoned {
		return fmt.Errorf("%w: store poisoned by an earlier panic", ErrLockFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			v.poisoned = true
			err = fmt.Errorf("%w: %v", ErrLockFailed, r)
		}
	}()
	return fn()
}

// Read returns a copy of the value from offset to the end.
//
// Offset 0 always succeeds, an empty store yields an empty slice. Any other
// offset must be strictly less than the current length, otherwise
// ErrInvalidOffset is returned.
func (v *ValueStore) Read(offset uint16) ([]byte, error) {
	var out []byte
	err := v.guard(func() error {
		off := int(offset)
		if off != 0 && off >= len(v.data) {
			return fmt.Errorf("%w: offset %d, length %d", ErrInvalidOffset, off, len(v.data))
		}
		out = make([]byte, len(v.data)-off)
		copy(out, v.data[off:])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write stores value at offset. Bytes before offset are kept, a gap past the
// old end is zero filled, and everything after offset+len(value) is dropped:
// the store length always becomes offset+len(value).
func (v *ValueStore) Write(value []byte, offset uint16) error {
	return v.guard(func() error {
		off := int(offset)
		end := off + len(value)
		next := make([]byte, end)
		copy(next, v.data[:min(off, len(v.data))])
		copy(next[off:], value)
		v.data = next
		return nil
	})
}

// Update replaces the value with the result of fn. fn receives a copy of the
// current value and runs with the lock held, so it must not call back into
// the same store.
func (v *ValueStore) Update(fn func(current []byte) []byte) error {
	return v.guard(func() error {
		current := make([]byte, len(v.data))
		copy(current, v.data)
		next := fn(current)
		v.data = make([]byte, len(next))
		copy(v.data, next)
		return nil
	})
}

// Bytes returns a copy of the whole value. A poisoned store yields nil.
func (v *ValueStore) Bytes() []byte {
	out, err := v.Read(0)
	if err != nil {
		return nil
	}
	return out
}

// Len returns the current value length. A poisoned store reports 0, matching
// the nil returned by Bytes.
func (v *ValueStore) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.poisoned {
		return 0
	}
	return len(v.data)
}
