// Package form is the interactive terminal front end: it asks for every
// schema field, submits the answers through the inference service and
// renders the outcome.
package form

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"predictd/internal/features"
	"predictd/internal/inference"
)

// Checkboxes lists the boolean fields asked as yes/no confirmations rather
// than selects.
var Checkboxes = []string{"fbs"}

// groupSize is the number of questions shown per page.
const groupSize = 5

// Predictor is the part of *inference.Service the form needs.
type Predictor interface {
	Schema() *features.Schema
	Encoder() *features.Encoder
	PredictFields(ctx context.Context, raw features.Fields) (inference.Result, bool, error)
}

// Answers holds the values bound to the form's fields.
type Answers struct {
	schema *features.Schema
	text   map[string]*string
	checks map[string]*bool
}

// New builds the form for s. Inputs start at the field defaults.
func New(s *features.Schema, enc *features.Encoder) (*huh.Form, *Answers) {
	a := &Answers{schema: s, text: map[string]*string{}, checks: map[string]*bool{}}
	var fields []huh.Field
	for _, f := range s.Fields() {
		fields = append(fields, a.field(f, enc))
	}
	var groups []*huh.Group
	for i := 0; i < len(fields); i += groupSize {
		end := min(i+groupSize, len(fields))
		groups = append(groups, huh.NewGroup(fields[i:end]...))
	}
	return huh.NewForm(groups...), a
}

func (a *Answers) field(f features.Field, enc *features.Encoder) huh.Field {
	title := f.Help
	if title == "" {
		title = f.Name
	}
	if isCheckbox(f.Name) {
		b := features.Truthy(f.Default)
		a.checks[f.Name] = &b
		return huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&b)
	}
	s := ""
	a.text[f.Name] = &s
	switch {
	case f.Type == features.Categorical:
		if f.Default != nil {
			s = fmt.Sprint(f.Default)
		}
		return huh.NewSelect[string]().Title(title).Options(huh.NewOptions(f.Domain...)...).Value(&s)
	case f.Type == features.Code && len(enc.Labels(f.Name)) > 0:
		labels := enc.Labels(f.Name)
		s = defaultLabel(f, enc, labels)
		return huh.NewSelect[string]().Title(title).Options(huh.NewOptions(labels...)...).Value(&s)
	default:
		if f.Default != nil {
			s = fmt.Sprint(f.Default)
		}
		return huh.NewInput().Title(title).Description(rangeHint(f)).Value(&s).Validate(numberValidator(f))
	}
}

// Fields converts the answers into raw fields for PredictFields. Labels are
// passed through for the encoder.
func (a *Answers) Fields() (features.Fields, error) {
	out := features.Fields{}
	for _, f := range a.schema.Fields() {
		if b, ok := a.checks[f.Name]; ok {
			out[f.Name] = *b
			continue
		}
		s, ok := a.text[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case features.Integer, features.Number:
			n, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
			if err != nil {
				return nil, &features.ValidationError{Field: f.Name, Reason: features.ReasonType, Detail: "not a number: " + *s}
			}
			out[f.Name] = n
		default:
			out[f.Name] = *s
		}
	}
	return out, nil
}

// Run shows the form, predicts and writes the rendered result to w.
func Run(ctx context.Context, p Predictor, w io.Writer) error {
	form, answers := New(p.Schema(), p.Encoder())
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}
	raw, err := answers.Fields()
	if err != nil {
		fmt.Fprintln(w, RenderError(err))
		return err
	}
	res, _, err := p.PredictFields(ctx, raw)
	if err != nil {
		fmt.Fprintln(w, RenderError(err))
		return err
	}
	fmt.Fprintln(w, Render(res))
	return nil
}

func isCheckbox(name string) bool {
	for _, c := range Checkboxes {
		if c == name {
			return true
		}
	}
	return false
}

// defaultLabel finds the label that encodes to the field's default code.
func defaultLabel(f features.Field, enc *features.Encoder, labels []string) string {
	for _, l := range labels {
		if code, err := enc.Encode(f.Name, l); err == nil && fmt.Sprint(code) == fmt.Sprint(f.Default) {
			return l
		}
	}
	return labels[0]
}

func rangeHint(f features.Field) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("%g to %g", *f.Min, *f.Max)
	case f.Min != nil:
		return fmt.Sprintf("at least %g", *f.Min)
	case f.Max != nil:
		return fmt.Sprintf("at most %g", *f.Max)
	}
	return ""
}

func numberValidator(f features.Field) func(string) error {
	return func(s string) error {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if f.Type == features.Integer && n != float64(int64(n)) {
			return fmt.Errorf("enter a whole number")
		}
		if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
			return fmt.Errorf("must be %s", rangeHint(f))
		}
		return nil
	}
}
