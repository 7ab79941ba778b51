// Package features defines the input contract of each served model: the
// ordered feature schema, the assembled record handed to the model, and the
// categorical encoder that turns human-facing labels into model codes.
package features

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Type is the value type of a schema field.
type Type int

const (
	// Integer is a whole number, range checked.
	Integer Type = iota
	// Number is a real number, range checked.
	Number
	// Categorical is a string drawn from a finite domain.
	Categorical
	// Code is an integer drawn from a finite domain, usually produced by the Encoder.
	Code
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Number:
		return "number"
	case Categorical:
		return "categorical"
	case Code:
		return "code"
	}
	return "unknown"
}

// Task is the prediction task a schema feeds.
type Task string

const (
	Regression     Task = "regression"
	Classification Task = "classification"
)

// Fields is the flat mapping of raw values an adapter collects.
type Fields map[string]any

// Field declares one named input.
type Field struct {
	Name    string
	Type    Type
	Min     *float64
	Max     *float64
	Domain  []string
	Codes   []int
	Default any
	Help    string
}

// Schema is an immutable ordered set of fields. The order is the column order
// the model was fit on.
type Schema struct {
	name   string
	task   Task
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema. Duplicate field names are a definition bug and panic.
func NewSchema(name string, task Task, fields ...Field) *Schema {
	s := &Schema{name: name, task: task, fields: make([]Field, len(fields)), index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("features: duplicate field %q in schema %q", f.Name, name))
		}
		f.Domain = append([]string(nil), f.Domain...)
		f.Codes = append([]int(nil), f.Codes...)
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s
}

func (s *Schema) Name() string { return s.name }
func (s *Schema) Task() Task   { return s.task }
func (s *Schema) Len() int     { return len(s.fields) }

// Names returns the field names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Fields returns a copy of the field declarations in schema order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declaration by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// WithDefaults returns a copy of raw with declared defaults filled in for
// absent fields. Only adapters that historically offered defaults use it.
func (s *Schema) WithDefaults(raw Fields) Fields {
	out := make(Fields, len(s.fields))
	for k, v := range raw {
		out[k] = v
	}
	for _, f := range s.fields {
		if _, ok := out[f.Name]; !ok && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Assemble validates raw against the schema and builds the record by named
// lookup in schema order. Extra fields are rejected, not dropped.
func (s *Schema) Assemble(raw Fields) (Record, error) {
	extras := make([]string, 0)
	for k := range raw {
		if _, ok := s.index[k]; !ok {
			extras = append(extras, k)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		return Record{}, &ValidationError{Field: extras[0], Reason: ReasonUnexpected}
	}
	values := make([]Value, len(s.fields))
	for i, f := range s.fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			return Record{}, &ValidationError{Field: f.Name, Reason: ReasonMissing}
		}
		val, err := f.check(v)
		if err != nil {
			return Record{}, err
		}
		values[i] = val
	}
	return Record{schema: s, values: values}, nil
}

func (f Field) check(v any) (Value, error) {
	switch f.Type {
	case Categorical:
		str, ok := v.(string)
		if !ok {
			return Value{}, &ValidationError{Field: f.Name, Reason: ReasonType, Detail: fmt.Sprintf("expected string, got %T", v)}
		}
		for _, d := range f.Domain {
			if d == str {
				return Value{str: str, categorical: true}, nil
			}
		}
		return Value{}, &UnknownCategoryError{Field: f.Name, Value: str}
	case Code:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return Value{}, &ValidationError{Field: f.Name, Reason: ReasonType, Detail: fmt.Sprintf("expected integer code, got %v", v)}
		}
		for _, c := range f.Codes {
			if float64(c) == n {
				return Value{num: n}, nil
			}
		}
		return Value{}, &UnknownCategoryError{Field: f.Name, Value: strconv.FormatFloat(n, 'f', -1, 64)}
	default:
		n, ok := toFloat(v)
		if !ok {
			return Value{}, &ValidationError{Field: f.Name, Reason: ReasonType, Detail: fmt.Sprintf("expected %s, got %T", f.Type, v)}
		}
		if f.Type == Integer && n != math.Trunc(n) {
			return Value{}, &ValidationError{Field: f.Name, Reason: ReasonType, Detail: fmt.Sprintf("expected integer, got %v", n)}
		}
		if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
			return Value{}, &OutOfRangeError{Field: f.Name, Value: n, Min: f.Min, Max: f.Max}
		}
		return Value{num: n}, nil
	}
}

// toFloat accepts the numeric shapes adapters produce: Go numbers, JSON
// numbers and decimal strings from query or form input.
func toFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// bound is a shorthand for optional limits in field declarations.
func bound(v float64) *float64 { return &v }
