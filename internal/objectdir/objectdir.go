// Package objectdir provides an in-memory gatt.ObjectDirectory. It backs the
// dry-run tree command and the registration tests.
package objectdir

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/godbus/dbus/v5"
	"github.com/srg/bluegatt/pkg/gatt"
)

// Entry is one published interface.
type Entry struct {
	Path       dbus.ObjectPath
	Interface  string
	Object     interface{}
	Properties gatt.Properties
}

// Memory keeps published objects in a concurrent map keyed by path and
// interface.
type Memory struct {
	entries *hashmap.Map[string, *Entry]

	mu       sync.Mutex
	failures map[dbus.ObjectPath]error
	history  []string
}

func New() *Memory {
	return &Memory{
		entries:  hashmap.New[string, *Entry](),
		failures: make(map[dbus.ObjectPath]error),
	}
}

func key(path dbus.ObjectPath, iface string) string {
	return string(path) + "#" + iface
}

// FailOn makes the next Publish at path fail with err.
func (m *Memory) FailOn(path dbus.ObjectPath, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
}

func (m *Memory) Publish(path dbus.ObjectPath, iface string, obj interface{}, props gatt.Properties) error {
	m.mu.Lock()
	err, fail := m.failures[path]
	delete(m.failures, path)
	m.mu.Unlock()
	if fail {
		return err
	}

	entry := &Entry{Path: path, Interface: iface, Object: obj, Properties: props}
	if !m.entries.Insert(key(path, iface), entry) {
		return fmt.Errorf("%w: %s at %s", gatt.ErrPathInUse, iface, path)
	}
	m.record("publish " + string(path))
	return nil
}

func (m *Memory) Unpublish(path dbus.ObjectPath, iface string) error {
	if !m.entries.Del(key(path, iface)) {
		return fmt.Errorf("%s not published at %s", iface, path)
	}
	m.record("unpublish " + string(path))
	return nil
}

func (m *Memory) record(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, event)
}

// Lookup returns the entry published under iface at path.
func (m *Memory) Lookup(path dbus.ObjectPath, iface string) (*Entry, bool) {
	return m.entries.Get(key(path, iface))
}

// Len returns the number of published interfaces.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Paths returns every published path, sorted.
func (m *Memory) Paths() []dbus.ObjectPath {
	seen := make(map[dbus.ObjectPath]struct{})
	m.entries.Range(func(_ string, e *Entry) bool {
		seen[e.Path] = struct{}{}
		return true
	})
	out := make([]dbus.ObjectPath, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// History returns publish/unpublish events in the order they happened.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
