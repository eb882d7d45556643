package types

// Field describes one editable attribute of a model. Order of declaration is
// the order the edit form renders.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Required bool   `json:"required,omitempty"`

	// HasDefault marks fields the persistence layer can fill when the form
	// omits them. Excluding a required field without a default is a model
	// definition problem, not a gate problem.
	HasDefault bool `json:"has_default,omitempty"`
}

// Fieldset groups declared fields under an optional label.
type Fieldset struct {
	Label  string   `json:"label,omitempty"`
	Fields []string `json:"fields"`
}

// Inline describes a nested editor for a related model, keyed by its
// registered name (e.g. "MetaTagInline").
type Inline struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

// ModelDescriptor is the admin-facing description of one editable model.
type ModelDescriptor struct {
	Name      string     `json:"name"`
	Fields    []Field    `json:"fields"`
	Fieldsets []Fieldset `json:"fieldsets,omitempty"`
	Inlines   []Inline   `json:"inlines,omitempty"`
}

// FieldNames returns the declared field names in declaration order.
func (m ModelDescriptor) FieldNames() []string {
	out := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Form is the result of building an edit form for one request: only the
// fields, fieldsets and inlines the acting principal may change.
type Form struct {
	Model     string     `json:"model"`
	Fields    []Field    `json:"fields"`
	Fieldsets []Fieldset `json:"fieldsets"`
	Inlines   []Inline   `json:"inlines"`
}
