// Package render maps field descriptors and live form values onto input
// contracts. The boundary is value shapes, not markup: the package decides
// what flows in and out of each input, never how it is drawn.
package render

import (
	"strings"
	"unicode"

	"fieldregistry-server/internal/registry/domain"
)

// Input is the rendered contract for one field. Value is normalized to the
// shape the field type expects: string for text-like types, bool for
// checkbox, []string for multiselect.
type Input struct {
	Name     string
	Label    string
	Type     domain.FieldType
	Required bool
	Value    any
	Options  []domain.Option
}

// BuildInput renders one field against the current form values.
func BuildInput(field domain.FieldDescriptor, values domain.FormValues) Input {
	input := Input{
		Name:     field.Name,
		Label:    field.Label,
		Type:     field.Type,
		Required: field.Required,
		Value:    normalizeValue(field, values[field.Name]),
	}

	switch field.Type {
	case domain.FieldTypeSelect, domain.FieldTypeMultiSelect:
		input.Options = field.Options
	}

	return input
}

// normalizeValue degrades schema drift silently: a select value missing from
// the current options renders unselected, unknown multiselect entries are
// dropped. Number and currency stay strings so an intermediate invalid
// keystroke is never lost; coercion happens at submit, not here.
func normalizeValue(field domain.FieldDescriptor, raw any) any {
	switch field.Type {
	case domain.FieldTypeCheckbox:
		checked, ok := raw.(bool)
		if !ok {
			return false
		}
		return checked
	case domain.FieldTypeSelect:
		value := stringValue(raw)
		if !field.HasOption(value) {
			return ""
		}
		return value
	case domain.FieldTypeMultiSelect:
		return selectedOptions(field, raw)
	case domain.FieldTypeText,
		domain.FieldTypeTextarea,
		domain.FieldTypeNumber,
		domain.FieldTypeCurrency,
		domain.FieldTypeDate:
		return stringValue(raw)
	default:
		return stringValue(raw)
	}
}

func stringValue(raw any) string {
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return value
}

func selectedOptions(field domain.FieldDescriptor, raw any) []string {
	var candidates []string
	switch values := raw.(type) {
	case []string:
		candidates = values
	case []any:
		for _, v := range values {
			if s, ok := v.(string); ok {
				candidates = append(candidates, s)
			}
		}
	}

	selected := []string{}
	for _, value := range candidates {
		if field.HasOption(value) {
			selected = append(selected, value)
		}
	}
	return selected
}

// ApplyChange normalizes an incoming change and returns an updated copy of
// the form values. The original map is never mutated.
func ApplyChange(values domain.FormValues, field domain.FieldDescriptor, raw any) domain.FormValues {
	out := values.Clone()

	switch field.Type {
	case domain.FieldTypeCheckbox:
		checked, _ := raw.(bool)
		out[field.Name] = checked
	case domain.FieldTypeMultiSelect:
		out[field.Name] = selectedOptions(field, raw)
	default:
		out[field.Name] = stringValue(raw)
	}

	return out
}

// Options controls form assembly. SectionLabels overrides the display name
// of a section key; absent keys are title-cased.
type Options struct {
	GroupBySection bool
	SectionLabels  map[string]string
	Columns        int
}

type Section struct {
	Key    string
	Label  string
	Inputs []Input
}

// Form is the rendered form: ordered sections of inputs plus the column
// hint passed through for the consumer's layout.
type Form struct {
	Sections []Section
	Columns  int
}

// BuildForm renders the form fields against the current values. Fields with
// show_in_form=false are excluded. With grouping enabled, sections are
// ordered by their minimum field order (ties first-seen) and fields within a
// section by their own order.
func BuildForm(fields []domain.FieldDescriptor, values domain.FormValues, opts Options) Form {
	form := Form{Columns: opts.Columns}

	grouping := domain.Config{Fields: fields}

	if !opts.GroupBySection {
		section := Section{}
		for _, field := range grouping.FormFields() {
			section.Inputs = append(section.Inputs, BuildInput(field, values))
		}
		form.Sections = append(form.Sections, section)
		return form
	}

	bySection := grouping.FieldsBySection()
	for _, key := range grouping.SectionOrder() {
		section := Section{
			Key:   key,
			Label: sectionLabel(key, opts.SectionLabels),
		}
		for _, field := range bySection[key] {
			section.Inputs = append(section.Inputs, BuildInput(field, values))
		}
		form.Sections = append(form.Sections, section)
	}

	return form
}

func sectionLabel(key string, overrides map[string]string) string {
	if label, ok := overrides[key]; ok {
		return label
	}
	return titleCase(key)
}

func titleCase(key string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	words := strings.Fields(replaced)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
