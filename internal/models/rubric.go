package models

import "fmt"

// FieldKind is the value kind of a rubric metric. The set is closed: the
// scorer's schema builder switches exhaustively over it, so adding a kind is a
// compile-time-checked change.
type FieldKind string

const (
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindEnum    FieldKind = "enum"
	KindText    FieldKind = "text"
)

// RubricField declares one named metric the judge model is asked to produce.
type RubricField struct {
	Name        string    `yaml:"name" json:"name"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// Rubric is the caller-declared set of metrics used to shape the judge's
// structured output. An empty rubric is legal: scoring then falls back to
// best-effort JSON extraction from free text.
type Rubric struct {
	// Instructions is natural-language grading guidance, sent to the judge
	// as its system role.
	Instructions string        `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Fields       []RubricField `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Empty reports whether the rubric declares no fields.
func (r Rubric) Empty() bool {
	return len(r.Fields) == 0
}

// Names returns the declared field names in declaration order.
func (r Rubric) Names() []string {
	names := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Lookup finds a field by name.
func (r Rubric) Lookup(name string) (RubricField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return RubricField{}, false
}

// Validate checks the rubric for malformed fields. It is called before any
// model call is made.
func (r Rubric) Validate() error {
	seen := make(map[string]struct{}, len(r.Fields))

	for i, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("rubric field %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("rubric field %q is declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Kind {
		case KindNumber, KindBoolean, KindText:
			if len(f.Options) > 0 {
				return fmt.Errorf("rubric field %q: options are only valid for kind %q", f.Name, KindEnum)
			}
		case KindEnum:
			if len(f.Options) == 0 {
				return fmt.Errorf("rubric field %q: kind %q requires at least one option", f.Name, KindEnum)
			}
		default:
			return fmt.Errorf("rubric field %q has unknown kind %q", f.Name, f.Kind)
		}
	}

	return nil
}
