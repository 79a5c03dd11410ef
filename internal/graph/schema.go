package graph

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Index types accepted in a schema file.
const (
	IndexRange = "range"
	IndexPoint = "point"
	IndexText  = "text"
)

// Constraint is a uniqueness constraint on one node property.
type Constraint struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Property string `yaml:"property"`
}

// Index is a single-property node index.
type Index struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Property string `yaml:"property"`
	Type     string `yaml:"type"`
}

// Schema lists the constraints and indexes installed into the graph.
type Schema struct {
	Constraints []Constraint `yaml:"constraints"`
	Indexes     []Index      `yaml:"indexes"`
}

// DefaultSchema returns the schema the application relies on.
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchema)
}

// LoadSchema reads a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read schema file %s", path)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, eris.Wrapf(err, "schema file %s", path)
	}
	return s, nil
}

// ParseSchema decodes and validates a YAML schema, filling in default
// names and index types.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "decode schema")
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) normalize() error {
	var problems []string
	names := make(map[string]bool)

	check := func(kind string, i int, name, label, property string) {
		where := fmt.Sprintf("%s[%d]", kind, i)
		if !identifierPattern.MatchString(label) {
			problems = append(problems, fmt.Sprintf("%s: invalid label %q", where, label))
		}
		if !identifierPattern.MatchString(property) {
			problems = append(problems, fmt.Sprintf("%s: invalid property %q", where, property))
		}
		if !identifierPattern.MatchString(name) {
			problems = append(problems, fmt.Sprintf("%s: invalid name %q", where, name))
		}
		if names[name] {
			problems = append(problems, fmt.Sprintf("%s: duplicate name %q", where, name))
		}
		names[name] = true
	}

	for i := range s.Constraints {
		c := &s.Constraints[i]
		if c.Name == "" {
			c.Name = defaultName(c.Label, c.Property, "unique")
		}
		check("constraints", i, c.Name, c.Label, c.Property)
	}
	for i := range s.Indexes {
		idx := &s.Indexes[i]
		idx.Type = strings.ToLower(strings.TrimSpace(idx.Type))
		if idx.Type == "" {
			idx.Type = IndexRange
		}
		switch idx.Type {
		case IndexRange, IndexPoint, IndexText:
		default:
			problems = append(problems, fmt.Sprintf("indexes[%d]: unknown index type %q", i, idx.Type))
		}
		if idx.Name == "" {
			idx.Name = defaultName(idx.Label, idx.Property, "index")
		}
		check("indexes", i, idx.Name, idx.Label, idx.Property)
	}

	if len(problems) > 0 {
		return eris.Errorf("invalid schema: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultName(label, property, suffix string) string {
	return strings.ToLower(label) + "_" + property + "_" + suffix
}

// Statements returns the Cypher needed to install s, constraints first.
// Every statement is idempotent.
func (s *Schema) Statements() []string {
	out := make([]string, 0, len(s.Constraints)+len(s.Indexes))
	for _, c := range s.Constraints {
		out = append(out, fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			c.Name, c.Label, c.Property))
	}
	for _, idx := range s.Indexes {
		kind := ""
		switch idx.Type {
		case IndexPoint:
			kind = "POINT "
		case IndexText:
			kind = "TEXT "
		}
		out = append(out, fmt.Sprintf(
			"CREATE %sINDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
			kind, idx.Name, idx.Label, idx.Property))
	}
	return out
}
