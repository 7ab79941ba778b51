package model

import (
	"fmt"
	"math"

	"predictd/internal/features"
)

// Model is a loaded, ready-to-invoke model. Implementations are read-only
// after construction and safe for concurrent use.
type Model interface {
	// Predict returns one value per row: the regression estimate, or the
	// predicted class (0 or 1) for classifiers.
	Predict(rows []features.Record) ([]float64, error)
}

// Classifier is a binary classifier that also exposes p(y=1).
type Classifier interface {
	Model
	PredictProba(rows []features.Record) ([]float64, error)
}

type column struct {
	name        string
	weight      float64
	levels      map[string]float64
	categorical bool
}

// Linear scores rows as intercept + sum of numeric weights times values plus
// the weight of each categorical level. Levels absent from the artifact are
// the reference level and contribute zero.
type Linear struct {
	name      string
	task      features.Task
	schema    *features.Schema
	intercept float64
	cols      []column
}

// Logistic is a Linear model passed through the logistic function.
type Logistic struct{ Linear }

func (m *Linear) Name() string { return m.name }

// Task reports whether the model is a regressor or a classifier.
func (m *Linear) Task() features.Task { return m.task }

func (m *Linear) score(r features.Record) (float64, error) {
	if r.Schema() != m.schema {
		return 0, fmt.Errorf("record schema %q does not match model schema %q", schemaName(r.Schema()), m.schema.Name())
	}
	sum := m.intercept
	for i, c := range m.cols {
		v := r.At(i)
		if c.categorical {
			sum += c.levels[v.String()]
			continue
		}
		sum += c.weight * v.Float()
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("non-finite score %v", sum)
	}
	return sum, nil
}

// Predict returns the linear estimate for each row.
func (m *Linear) Predict(rows []features.Record) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		s, err := m.score(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// PredictProba returns p(y=1) for each row.
func (m *Logistic) PredictProba(rows []features.Record) ([]float64, error) {
	scores, err := m.Linear.Predict(rows)
	if err != nil {
		return nil, err
	}
	for i, s := range scores {
		scores[i] = sigmoid(s)
	}
	return scores, nil
}

// Predict returns class labels using a 0.5 probability threshold.
func (m *Logistic) Predict(rows []features.Record) ([]float64, error) {
	proba, err := m.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	for i, p := range proba {
		if p >= 0.5 {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func schemaName(s *features.Schema) string {
	if s == nil {
		return "<none>"
	}
	return s.Name()
}

// Bind checks an artifact against the serving schema and builds the model.
// Any disagreement in feature names, order, task or weights is a load-time
// SchemaMismatchError so it can never surface as a silent misprediction.
func Bind(a *Artifact, s *features.Schema) (Model, error) {
	want := s.Names()
	if len(a.Features) != len(want) {
		return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("artifact has %d features, schema has %d", len(a.Features), len(want))}
	}
	for i := range want {
		if a.Features[i] != want[i] {
			return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("feature %d is %q, schema expects %q", i, a.Features[i], want[i])}
		}
	}
	if features.Task(a.Task) != s.Task() {
		return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("artifact task %q, schema task %q", a.Task, s.Task())}
	}
	lin := Linear{name: a.Name, task: s.Task(), schema: s, intercept: a.Intercept, cols: make([]column, len(want))}
	used := 0
	for i, f := range s.Fields() {
		if f.Type == features.Categorical {
			levels, ok := a.Categorical[f.Name]
			if !ok {
				return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("no categorical weights for %q", f.Name)}
			}
			for level := range levels {
				if !contains(f.Domain, level) {
					return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("level %q of %q is outside the schema domain", level, f.Name)}
				}
			}
			lin.cols[i] = column{name: f.Name, levels: levels, categorical: true}
			used++
			continue
		}
		w, ok := a.Numeric[f.Name]
		if !ok {
			return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("no numeric weight for %q", f.Name)}
		}
		lin.cols[i] = column{name: f.Name, weight: w}
		used++
	}
	if extra := len(a.Numeric) + len(a.Categorical) - used; extra != 0 {
		return nil, &SchemaMismatchError{Schema: s.Name(), Detail: fmt.Sprintf("artifact carries %d weights for unknown features", extra)}
	}
	if s.Task() == features.Classification {
		return &Logistic{Linear: lin}, nil
	}
	return &lin, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
