package features

import (
	"fmt"
	"strings"
)

// TableVersion identifies the label -> code tables below. Bump it whenever a
// table changes so cached predictions keyed on it are invalidated.
const TableVersion = "v1"

// Table maps the labels of one categorical field to model codes. Labels are
// kept in display order.
type Table struct {
	Field  string
	Labels []string
	Codes  []int
}

func (t Table) lookup(label string) (int, bool) {
	for i, l := range t.Labels {
		if l == label {
			return t.Codes[i], true
		}
	}
	return 0, false
}

// Encoder is a pure function over fixed per-field tables. It holds no state
// beyond the tables it was built with.
type Encoder struct {
	version string
	tables  map[string]Table
	boolean map[string]bool
}

// NewEncoder builds an encoder from tables and the names of boolean-like fields.
func NewEncoder(version string, tables []Table, boolean ...string) *Encoder {
	e := &Encoder{version: version, tables: make(map[string]Table, len(tables)), boolean: make(map[string]bool, len(boolean))}
	for _, t := range tables {
		if len(t.Labels) != len(t.Codes) {
			panic(fmt.Sprintf("features: table %q has %d labels and %d codes", t.Field, len(t.Labels), len(t.Codes)))
		}
		e.tables[t.Field] = t
	}
	for _, b := range boolean {
		e.boolean[b] = true
	}
	return e
}

// RiskEncoder holds the form labels of the risk model.
var RiskEncoder = NewEncoder(TableVersion, []Table{
	{Field: "sex", Labels: []string{"Male", "Female"}, Codes: []int{1, 0}},
	{Field: "cp", Labels: []string{"Typical angina", "Atypical angina", "Non-anginal pain", "Asymptomatic"}, Codes: []int{1, 2, 3, 4}},
	{Field: "restecg", Labels: []string{"Normal (0)", "ST-T abnormality (1)", "Left ventricular hypertrophy (2)"}, Codes: []int{0, 1, 2}},
	{Field: "slope", Labels: []string{"Upsloping (1)", "Flat (2)", "Downsloping (3)"}, Codes: []int{1, 2, 3}},
	{Field: "thal", Labels: []string{"Normal (3)", "Fixed defect (6)", "Reversible defect (7)"}, Codes: []int{3, 6, 7}},
}, "fbs", "exang")

// PriceEncoder has no tables: the price model consumes its categorical
// labels directly.
var PriceEncoder = NewEncoder(TableVersion, nil)

// EncoderFor returns the encoder of a model variant.
func EncoderFor(k Kind) (*Encoder, bool) {
	switch k {
	case KindPrice:
		return PriceEncoder, true
	case KindRisk:
		return RiskEncoder, true
	}
	return nil, false
}

// Version returns the table version.
func (e *Encoder) Version() string { return e.version }

// Owns reports whether the encoder maps the field.
func (e *Encoder) Owns(field string) bool {
	_, ok := e.tables[field]
	return ok || e.boolean[field]
}

// Labels lists the accepted labels of a field in display order.
func (e *Encoder) Labels(field string) []string {
	if e.boolean[field] {
		return []string{"No", "Yes"}
	}
	t, ok := e.tables[field]
	if !ok {
		return nil
	}
	return append([]string(nil), t.Labels...)
}

// Encode maps a label to its code. Boolean-like fields go through Truthy;
// every other field needs an exact table entry.
func (e *Encoder) Encode(field string, label any) (int, error) {
	if e.boolean[field] {
		if Truthy(label) {
			return 1, nil
		}
		return 0, nil
	}
	t, ok := e.tables[field]
	if !ok {
		return 0, &EncodingError{Field: field, Label: fmt.Sprint(label)}
	}
	s, ok := label.(string)
	if !ok {
		return 0, &EncodingError{Field: field, Label: fmt.Sprint(label)}
	}
	code, ok := t.lookup(s)
	if !ok {
		return 0, &EncodingError{Field: field, Label: s}
	}
	return code, nil
}

// Normalize encodes the fields the encoder owns and copies the rest. Table
// fields that already carry a numeric code are left for the schema to check.
func (e *Encoder) Normalize(raw Fields) (Fields, error) {
	out := make(Fields, len(raw))
	for k, v := range raw {
		if !e.Owns(k) {
			out[k] = v
			continue
		}
		if _, isLabel := v.(string); !isLabel && !e.boolean[k] {
			out[k] = v
			continue
		}
		code, err := e.Encode(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = code
	}
	return out, nil
}

// Check verifies that every table entry lands inside the schema's code
// domain. A failure is a configuration bug.
func (e *Encoder) Check(s *Schema) error {
	for name, t := range e.tables {
		f, ok := s.Field(name)
		if !ok || f.Type != Code {
			return fmt.Errorf("encoder table %q has no code field in schema %q", name, s.Name())
		}
		for i, c := range t.Codes {
			if !containsInt(f.Codes, c) {
				return fmt.Errorf("encoder table %q: label %q maps to %d outside domain %v", name, t.Labels[i], c, f.Codes)
			}
		}
	}
	for name := range e.boolean {
		f, ok := s.Field(name)
		if !ok || f.Type != Code || !containsInt(f.Codes, 0) || !containsInt(f.Codes, 1) {
			return fmt.Errorf("boolean field %q needs a {0,1} code field in schema %q", name, s.Name())
		}
	}
	return nil
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

var affirmative = map[string]bool{"true": true, "yes": true, "y": true, "on": true, "1": true, "checked": true}

// Truthy is the one truthiness rule for checkbox and yes/no inputs.
func Truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return affirmative[strings.ToLower(strings.TrimSpace(x))]
	case nil:
		return false
	}
	n, ok := toFloat(v)
	return ok && n == 1
}
