package domain

// FieldType is the closed set of renderable field kinds a registry document
// may declare. Unknown types are coerced to text at parse time.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeCurrency    FieldType = "currency"
	FieldTypeDate        FieldType = "date"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeTextarea    FieldType = "textarea"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText,
		FieldTypeNumber,
		FieldTypeCurrency,
		FieldTypeDate,
		FieldTypeCheckbox,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeTextarea:
		return true
	default:
		return false
	}
}

// DefaultSection is the bucket fields without a section are grouped under.
const DefaultSection = "other"

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor is one configurable field as stored in the registry
// document. The core never mutates descriptors, only derives views from them.
type FieldDescriptor struct {
	Name         string    `json:"field_name"`
	Label        string    `json:"field_label"`
	Type         FieldType `json:"field_type"`
	Section      string    `json:"section,omitempty"`
	Order        int       `json:"order,omitempty"`
	ShowInForm   *bool     `json:"show_in_form,omitempty"`
	ShowInList   bool      `json:"show_in_list,omitempty"`
	Required     bool      `json:"is_required,omitempty"`
	DefaultValue any       `json:"default_value,omitempty"`
	Options      []Option  `json:"options,omitempty"`
}

// InForm reports whether the field belongs to form rendering. Absent means
// true; only an explicit false excludes a field.
func (f FieldDescriptor) InForm() bool {
	return f.ShowInForm == nil || *f.ShowInForm
}

// SectionKey returns the grouping bucket, falling back to DefaultSection.
func (f FieldDescriptor) SectionKey() string {
	if f.Section == "" {
		return DefaultSection
	}
	return f.Section
}

func (f FieldDescriptor) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// InitialValue derives the starting form value for the field.
func (f FieldDescriptor) InitialValue() any {
	return InitialValue(f.Type, f.DefaultValue)
}

// InitialValue is total over the FieldType set: an explicit default wins,
// otherwise checkbox starts false, multiselect starts empty, and every other
// type starts as an empty string. Numeric fields deliberately do not start at
// zero so downstream forms can tell "unset" from "zero".
func InitialValue(fieldType FieldType, defaultValue any) any {
	if defaultValue != nil {
		return defaultValue
	}

	switch fieldType {
	case FieldTypeCheckbox:
		return false
	case FieldTypeMultiSelect:
		return []string{}
	case FieldTypeText,
		FieldTypeNumber,
		FieldTypeCurrency,
		FieldTypeDate,
		FieldTypeSelect,
		FieldTypeTextarea:
		return ""
	default:
		return ""
	}
}
