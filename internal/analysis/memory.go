package analysis

import "github.com/dolscan/dolscan/internal/value"

// memEntry is one symbolic store: a key expression (the effective address)
// and the value last stored there.
type memEntry struct {
	key, val value.Value
}

// Memory is an ordered address -> value map. Addresses are themselves
// symbolic expressions (e.g. Add(CallerStack, -16)), so lookups compare
// keys structurally rather than by identity; a plain Go map can't do that
// since Value holds arena pointers that differ across equal expressions.
type Memory struct {
	entries []memEntry
}

// Get looks up the value last stored at key, if any.
func (m Memory) Get(key value.Value) (value.Value, bool) {
	for _, e := range m.entries {
		if value.Equal(e.key, key) {
			return e.val, true
		}
	}
	return value.Value{}, false
}

// Set records a store of val at key, overwriting any prior value at the
// same (structurally equal) key.
func (m *Memory) Set(key, val value.Value) {
	for i := range m.entries {
		if value.Equal(m.entries[i].key, key) {
			m.entries[i].val = val
			return
		}
	}
	m.entries = append(m.entries, memEntry{key: key, val: val})
}

func (m Memory) clone() Memory {
	if len(m.entries) == 0 {
		return Memory{}
	}
	out := make([]memEntry, len(m.entries))
	copy(out, m.entries)
	return Memory{entries: out}
}

func (m Memory) equal(other Memory) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for _, e := range m.entries {
		v, ok := other.Get(e.key)
		if !ok || !value.Equal(v, e.val) {
			return false
		}
	}
	return true
}

// joinMemory pointwise-joins two memory maps: a key present on both sides
// joins its two values; a key present on only one side joins against
// Uninitialized (a store that may or may not have happened on the other
// path).
func joinMemory(a, b Memory) Memory {
	var out Memory
	for _, e := range a.entries {
		if bv, ok := b.Get(e.key); ok {
			out.Set(e.key, value.Join(e.val, bv))
		} else {
			out.Set(e.key, value.Join(e.val, value.Uninitialized))
		}
	}
	for _, e := range b.entries {
		if _, ok := a.Get(e.key); !ok {
			out.Set(e.key, value.Join(e.val, value.Uninitialized))
		}
	}
	return out
}
