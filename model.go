package medial

// Model is implemented by types that declare their own persistence spec.
type Model interface {
	EntitySpec() EntitySpec
}

// ValidatorFunc reports whether value is acceptable. params is the
// property's ValidatorParams.
type ValidatorFunc func(value any, params any) bool

// SetterFunc replaces a value before it is stored on e.
type SetterFunc func(e *Entity, value any) any

// Property describes one mapped attribute of an entity.
type Property struct {
	Name string
	// Column defaults to Name.
	Column string
	// Type is a semantic hint; it is carried for documentation and tooling
	// and is not enforced.
	Type string
	// Default is applied to new entities when non-nil.
	Default  any
	Auto     bool
	ReadOnly bool

	Validator       ValidatorFunc
	ValidatorParams any
	SetterOverride  SetterFunc
}

// ColumnName returns the column the property maps to.
func (p Property) ColumnName() string {
	if p.Column != "" {
		return p.Column
	}
	return p.Name
}

func (p Property) hasDefault() bool {
	return p.Default != nil
}

// EntitySpec is the persistence specification of an entity type.
type EntitySpec struct {
	Table  string
	Schema string
	// Key names the key property. Defaults to "id".
	Key        string
	Properties []Property
}

type genericModel struct {
	spec EntitySpec
}

func (g genericModel) EntitySpec() EntitySpec {
	return g.spec
}

// CreateGenericModel wraps a spec as a Model.
func CreateGenericModel(spec EntitySpec) Model {
	return genericModel{spec: spec}
}
