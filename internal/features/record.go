package features

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Value is one assembled field value.
type Value struct {
	num         float64
	str         string
	categorical bool
}

func (v Value) Float() float64 { return v.num }

func (v Value) String() string {
	if v.categorical {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

func (v Value) IsCategorical() bool { return v.categorical }

// Any returns the value as it would appear in a JSON document.
func (v Value) Any() any {
	if v.categorical {
		return v.str
	}
	return v.num
}

// Record is a single validated row bound to exactly one schema. It is never
// mutated after Assemble returns it.
type Record struct {
	schema *Schema
	values []Value
}

// Schema returns the schema the record was assembled against.
func (r Record) Schema() *Schema { return r.schema }

func (r Record) Len() int { return len(r.values) }

// At returns the value in column i.
func (r Record) At(i int) Value { return r.values[i] }

// Names returns the column names in order.
func (r Record) Names() []string {
	if r.schema == nil {
		return nil
	}
	return r.schema.Names()
}

// Get looks a value up by field name.
func (r Record) Get(name string) (Value, bool) {
	if r.schema == nil {
		return Value{}, false
	}
	i, ok := r.schema.index[name]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Map renders the record as a name -> value map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, n := range r.Names() {
		out[n] = r.values[i].Any()
	}
	return out
}

// Fingerprint is a stable digest of schema name, column order and values.
func (r Record) Fingerprint() string {
	h := sha256.New()
	if r.schema != nil {
		h.Write([]byte(r.schema.name))
	}
	for i, n := range r.Names() {
		h.Write([]byte{0})
		h.Write([]byte(n))
		h.Write([]byte{'='})
		h.Write([]byte(r.values[i].String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
