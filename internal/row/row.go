// Package row provides the ordered row type threaded through every query stage.
//
// A Row maps column names to scalars (nil, string, float64 or bool) and keeps
// insertion order so that SELECT * and result columns come back in the order
// the data was written. The storage identifier lives in Row.ID and is never
// part of the column space: no column lookup can resolve "_id".
package row

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// StorageIDKey is the document key of the storage identifier.
const StorageIDKey = "_id"

// Row is an ordered column → scalar mapping plus its storage identifier.
//
// The zero value is an empty row ready for use.
type Row struct {
	// ID is the backing store's document key. Empty for rows that were
	// never persisted (generated series, aggregated output).
	ID string

	keys []string
	vals map[string]any
}

// New returns an empty row.
func New() *Row {
	return &Row{}
}

// Of builds a row from alternating name/value pairs.
// Values pass through Normalize. Panics on an odd argument count.
//
// Example:
//
//	r := row.Of("id", 1, "name", "Ann")
func Of(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("row.Of: odd number of arguments")
	}
	r := &Row{}
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.keys)
}

// Keys returns the column names in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value stored under exactly name.
func (r *Row) Get(name string) (any, bool) {
	if r.vals == nil {
		return nil, false
	}
	v, ok := r.vals[name]
	return v, ok
}

// Has reports whether Lookup would resolve ref.
func (r *Row) Has(ref string) bool {
	_, ok := r.Lookup(ref)
	return ok
}

// Lookup resolves a possibly qualified column reference.
//
// Resolution order:
//  1. exact match on the full reference (joined rows may carry "t.col" keys)
//  2. exact match on the name with any "table." prefix stripped
//  3. case-insensitive match (Unicode folding over NFC) on the stripped name
//
// "_id" never resolves.
func (r *Row) Lookup(ref string) (any, bool) {
	if ref == "" || r.vals == nil {
		return nil, false
	}
	if v, ok := r.vals[ref]; ok {
		return v, true
	}
	name := ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		name = ref[i+1:]
		if v, ok := r.vals[name]; ok {
			return v, true
		}
	}
	if key, ok := r.findFold(name); ok {
		return r.vals[key], true
	}
	return nil, false
}

// Resolve returns the stored column name Lookup would match for ref.
func (r *Row) Resolve(ref string) (string, bool) {
	if r.vals == nil {
		return "", false
	}
	if _, ok := r.vals[ref]; ok {
		return ref, true
	}
	name := ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		name = ref[i+1:]
		if _, ok := r.vals[name]; ok {
			return name, true
		}
	}
	return r.findFold(name)
}

func (r *Row) findFold(name string) (string, bool) {
	folded := FoldName(name)
	for _, k := range r.keys {
		if FoldName(k) == folded {
			return k, true
		}
	}
	return "", false
}

// Set stores a value, appending the column when it is new.
// Setting "_id" updates ID instead of creating a column.
func (r *Row) Set(name string, v any) {
	if name == StorageIDKey {
		if s, ok := v.(string); ok {
			r.ID = s
		} else if v != nil {
			r.ID = String(v)
		}
		return
	}
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, exists := r.vals[name]; !exists {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = Normalize(v)
}

// Delete removes a column if present.
func (r *Row) Delete(name string) {
	if _, ok := r.vals[name]; !ok {
		return
	}
	delete(r.vals, name)
	for i, k := range r.keys {
		if k == name {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a copy that shares no state with r.
func (r *Row) Clone() *Row {
	out := &Row{ID: r.ID, keys: make([]string, len(r.keys))}
	copy(out.keys, r.keys)
	if r.vals != nil {
		out.vals = make(map[string]any, len(r.vals))
		for k, v := range r.vals {
			out.vals[k] = v
		}
	}
	return out
}

// With returns a copy of r with name set to v.
func (r *Row) With(name string, v any) *Row {
	out := r.Clone()
	out.Set(name, v)
	return out
}

// Merge returns a new row holding r's columns followed by the columns of
// right that r does not already have. Left values win on name collision.
// The result keeps r's ID.
func (r *Row) Merge(right *Row) *Row {
	out := r.Clone()
	if right == nil {
		return out
	}
	for _, k := range right.keys {
		if _, exists := out.vals[k]; exists {
			continue
		}
		out.Set(k, right.vals[k])
	}
	return out
}

// Map returns the columns as a plain map.
func (r *Row) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.vals[k]
	}
	return out
}

// Equal reports whether both rows hold the same columns in the same order with
// equal values. IDs are ignored.
func (r *Row) Equal(other *Row) bool {
	if r.Len() != other.Len() {
		return false
	}
	for i, k := range r.keys {
		if other.keys[i] != k || r.vals[k] != other.vals[k] {
			return false
		}
	}
	return true
}

// FoldName returns the caseless form of a column name used for
// case-insensitive matching.
func FoldName(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}
