// Package model decodes serialized model artifacts, binds them to a feature
// schema and exposes them as ready-to-invoke models behind a Handle.
package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// FormatLinearV1 is the only artifact format understood today.
const FormatLinearV1 = "linear/v1"

//go:embed artifact.schema.json
var artifactSchemaJSON string

var artifactSchema = gojsonschema.NewStringLoader(artifactSchemaJSON)

// Artifact is the serialized form of a linear model (regression) or a
// logistic model (classification) over one feature schema.
type Artifact struct {
	Format      string                        `json:"format" yaml:"format" toml:"format"`
	Name        string                        `json:"name" yaml:"name" toml:"name"`
	Task        string                        `json:"task" yaml:"task" toml:"task"`
	Features    []string                      `json:"features" yaml:"features" toml:"features"`
	Intercept   float64                       `json:"intercept" yaml:"intercept" toml:"intercept"`
	Numeric     map[string]float64            `json:"numeric,omitempty" yaml:"numeric,omitempty" toml:"numeric,omitempty"`
	Categorical map[string]map[string]float64 `json:"categorical,omitempty" yaml:"categorical,omitempty" toml:"categorical,omitempty"`
}

// DecodeFile decodes an artifact, choosing the codec from the file extension.
// Unknown extensions are treated as JSON, which is what registries serve.
func DecodeFile(path string, data []byte) (*Artifact, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml artifact: %w", err)
		}
		return decodeDocument(doc)
	case ".toml":
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode toml artifact: %w", err)
		}
		return decodeDocument(doc)
	default:
		return Decode(data)
	}
}

func decodeDocument(doc map[string]any) (*Artifact, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode artifact: %w", err)
	}
	return Decode(b)
}

// Decode validates a JSON artifact against the embedded JSON Schema and
// decodes it.
func Decode(data []byte) (*Artifact, error) {
	res, err := gojsonschema.Validate(artifactSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid artifact: %s", strings.Join(msgs, "; "))
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Format != FormatLinearV1 {
		return nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	return &a, nil
}
