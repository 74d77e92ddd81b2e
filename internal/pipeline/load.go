package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Serialization of a pipeline document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// On-disk shape of a pipeline.
type Document struct {
	Name  string         `yaml:"name" toml:"name" json:"name,omitempty"`
	Steps []StepDocument `yaml:"steps" toml:"steps" json:"steps"`
}

// On-disk shape of a step.
type StepDocument struct {
	Name      string   `yaml:"name" toml:"name" json:"name"`
	Image     string   `yaml:"image" toml:"image" json:"image"`
	Commands  []string `yaml:"commands" toml:"commands" json:"commands"`
	DependsOn []string `yaml:"depends_on,omitempty" toml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Platform  string   `yaml:"platform,omitempty" toml:"platform,omitempty" json:"platform,omitempty"`
}

// Returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Reads and validates the pipeline file at path.
//
// The format is chosen from the file extension. If the document has no
// name, the file's base name without extension is used.
func Load(path string) (*Pipeline, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return doc.Pipeline()
}

// Decodes and validates a pipeline document.
func Parse(data []byte, format Format) (*Pipeline, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Pipeline()
}

// Decodes a pipeline document without validating it.
//
// Unknown fields are rejected in every format.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Converts the document into a validated [Pipeline].
func (d *Document) Pipeline() (*Pipeline, error) {
	steps := make([]Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		deps := make([]StepName, 0, len(s.DependsOn))
		for _, dep := range s.DependsOn {
			deps = append(deps, StepName(dep))
		}
		steps = append(steps, Step{
			Name:      StepName(s.Name),
			Commands:  s.Commands,
			Image:     Image(s.Image),
			DependsOn: deps,
			Platform:  s.Platform,
		})
	}
	return New(d.Name, steps...)
}

// Returns the document form of a pipeline.
func (p *Pipeline) Document() *Document {
	doc := &Document{Name: p.Name, Steps: make([]StepDocument, 0, len(p.steps))}
	for _, s := range p.steps {
		var deps []string
		for _, dep := range s.DependsOn {
			deps = append(deps, string(dep))
		}
		doc.Steps = append(doc.Steps, StepDocument{
			Name:      string(s.Name),
			Image:     string(s.Image),
			Commands:  append([]string(nil), s.Commands...),
			DependsOn: deps,
			Platform:  s.Platform,
		})
	}
	return doc
}
