package gatt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStore_Read(t *testing.T) {
	tests := []struct {
		name     string
		initial  []byte
		offset   uint16
		expected []byte
		wantErr  error
	}{
		{name: "whole value", initial: []byte{1, 2, 3}, offset: 0, expected: []byte{1, 2, 3}},
		{name: "tail from offset", initial: []byte{1, 2, 3}, offset: 1, expected: []byte{2, 3}},
		{name: "last byte", initial: []byte{1, 2, 3}, offset: 2, expected: []byte{3}},
		{name: "offset equal to length", initial: []byte{1, 2, 3}, offset: 3, wantErr: ErrInvalidOffset},
		{name: "offset past end", initial: []byte{1, 2, 3}, offset: 10, wantErr: ErrInvalidOffset},
		{name: "empty value at zero", initial: nil, offset: 0, expected: []byte{}},
		{name: "empty value past zero", initial: nil, offset: 1, wantErr: ErrInvalidOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValueStore(tt.initial)

			got, err := v.Read(tt.offset)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValueStore_Write(t *testing.T) {
	tests := []struct {
		name     string
		initial  []byte
		value    []byte
		offset   uint16
		expected []byte
	}{
		{name: "overwrite in place", initial: []byte{1, 2, 3}, value: []byte{9, 9}, offset: 1, expected: []byte{1, 9, 9}},
		{name: "extend past end", initial: []byte{1, 2, 3}, value: []byte{9, 9}, offset: 2, expected: []byte{1, 2, 9, 9}},
		{name: "zero fill gap", initial: []byte{1, 2, 3}, value: []byte{9, 9}, offset: 5, expected: []byte{1, 2, 3, 0, 0, 9, 9}},
		{name: "truncate at zero offset", initial: []byte{1, 2, 3, 4, 5}, value: []byte{9}, offset: 0, expected: []byte{9}},
		{name: "truncate after offset", initial: []byte{1, 2, 3, 4, 5}, value: []byte{9}, offset: 2, expected: []byte{1, 2, 9}},
		{name: "write into empty", initial: nil, value: []byte{7}, offset: 0, expected: []byte{7}},
		{name: "empty write clears", initial: []byte{1, 2}, value: nil, offset: 0, expected: []byte{}},
		{name: "empty write at offset keeps prefix", initial: []byte{1, 2, 3}, value: nil, offset: 1, expected: []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValueStore(tt.initial)

			require.NoError(t, v.Write(tt.value, tt.offset))

			assert.Equal(t, tt.expected, v.Bytes())
			assert.Equal(t, int(tt.offset)+len(tt.value), v.Len(), "length MUST become offset+len(value)")
		})
	}
}

func TestValueStore_WriteIsIdempotent(t *testing.T) {
	v := NewValueStore([]byte{1, 2, 3, 4})

	require.NoError(t, v.Write([]byte{8, 8}, 1))
	first := v.Bytes()
	require.NoError(t, v.Write([]byte{8, 8}, 1))

	assert.Equal(t, first, v.Bytes(), "repeating a write MUST NOT change the result")
}

func TestValueStore_WriteThenRead(t *testing.T) {
	v := NewValueStore([]byte{1, 2, 3})

	require.NoError(t, v.Write([]byte{4, 5, 6}, 2))
	got, err := v.Read(2)

	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6}, got)
}

func TestValueStore_Copies(t *testing.T) {
	initial := []byte{1, 2, 3}
	v := NewValueStore(initial)
	initial[0] = 0xff

	got, err := v.Read(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got, "store MUST NOT alias the initial slice")

	got[1] = 0xff
	assert.Equal(t, []byte{1, 2, 3}, v.Bytes(), "store MUST NOT alias returned slices")

	written := []byte{7, 7}
	require.NoError(t, v.Write(written, 0))
	written[0] = 0
	assert.Equal(t, []byte{7, 7}, v.Bytes(), "store MUST NOT alias written slices")
}

func TestValueStore_Update(t *testing.T) {
	v := NewValueStore([]byte{1})

	require.NoError(t, v.Update(func(cur []byte) []byte { return append(cur, 2) }))

	assert.Equal(t, []byte{1, 2}, v.Bytes())
}

func TestValueStore_PanicPoisons(t *testing.T) {
	v := NewValueStore([]byte{1, 2})

	err := v.Update(func([]byte) []byte { panic("boom") })
	require.ErrorIs(t, err, ErrLockFailed)
	assert.Contains(t, err.Error(), "boom")

	_, err = v.Read(0)
	assert.ErrorIs(t, err, ErrLockFailed, "reads after a panic MUST fail")
	assert.ErrorIs(t, v.Write([]byte{1}, 0), ErrLockFailed, "writes after a panic MUST fail")
	assert.Nil(t, v.Bytes())
	assert.Zero(t, v.Len(), "a poisoned store MUST report no data")
	assert.Equal(t, ErrorNameFailed, DBusError(err).Name)
}

func TestValueStore_Concurrent(t *testing.T) {
	v := NewValueStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func(b byte) {
			defer wg.Done()
			assert.NoError(t, v.Write([]byte{b, b, b, b}, 0))
		}(byte(i))
		go func() {
			defer wg.Done()
			got, err := v.Read(0)
			assert.NoError(t, err)
			if len(got) == 4 {
				assert.Equal(t, got[0], got[3], "reads MUST never observe a torn write")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, v.Len())
}
