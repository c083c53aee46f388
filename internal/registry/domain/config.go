package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Key identifies a registry document and its invalidation topic.
type Key struct {
	Module string
	Entity string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Module, k.Entity)
}

// Config is the unit fetched per key. It is replaced wholesale on every
// refetch, never patched in place.
type Config struct {
	Fields            []FieldDescriptor `json:"fields"`
	KanbanStages      []StageDescriptor `json:"kanban_stages,omitempty"`
	ListDisplayFields []string          `json:"list_display_fields,omitempty"`
	EntityLabel       string            `json:"entity_label,omitempty"`
}

// ParseConfig decodes a registry document and normalizes it. This is the
// single validation boundary: everything downstream may trust the shape.
func ParseConfig(raw []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(raw, &config); err != nil {
		return Config{}, fmt.Errorf("decoding registry config: %w", err)
	}

	return config.Normalized(), nil
}

// Normalized returns a copy with malformed entries degraded rather than
// rejected: unnamed fields and stages are dropped, duplicate field names keep
// the first occurrence, unknown field types coerce to text.
func (c Config) Normalized() Config {
	out := Config{
		ListDisplayFields: c.ListDisplayFields,
		EntityLabel:       c.EntityLabel,
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, field := range c.Fields {
		if field.Name == "" || seen[field.Name] {
			continue
		}
		seen[field.Name] = true
		if !field.Type.Valid() {
			field.Type = FieldTypeText
		}
		out.Fields = append(out.Fields, field)
	}

	for _, stage := range c.KanbanStages {
		if stage.Value == "" {
			continue
		}
		out.KanbanStages = append(out.KanbanStages, stage)
	}

	return out
}

// FormFields returns the fields that participate in form rendering, in
// original document order.
func (c Config) FormFields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, field := range c.Fields {
		if field.InForm() {
			out = append(out, field)
		}
	}
	return out
}

// ListFields returns the fields shown as list/table columns.
func (c Config) ListFields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, field := range c.Fields {
		if field.ShowInList {
			out = append(out, field)
		}
	}
	return out
}

// RequiredFields returns the fields checked by ValidateRequired.
func (c Config) RequiredFields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, field := range c.Fields {
		if field.Required {
			out = append(out, field)
		}
	}
	return out
}

// FieldsBySection partitions the form fields by section bucket. Each bucket
// is sorted by field order ascending; ties keep document order.
func (c Config) FieldsBySection() map[string][]FieldDescriptor {
	out := make(map[string][]FieldDescriptor)
	for _, field := range c.FormFields() {
		key := field.SectionKey()
		out[key] = append(out[key], field)
	}

	for key := range out {
		fields := out[key]
		sort.SliceStable(fields, func(i, j int) bool {
			return fields[i].Order < fields[j].Order
		})
	}

	return out
}

// SectionOrder returns the section buckets ordered by the minimum field order
// inside each bucket, ties broken by first appearance in the document.
func (c Config) SectionOrder() []string {
	type sectionRank struct {
		key      string
		minOrder int
		firstIdx int
	}

	var ranks []sectionRank
	index := make(map[string]int)
	for i, field := range c.FormFields() {
		key := field.SectionKey()
		pos, ok := index[key]
		if !ok {
			index[key] = len(ranks)
			ranks = append(ranks, sectionRank{key: key, minOrder: field.Order, firstIdx: i})
			continue
		}
		if field.Order < ranks[pos].minOrder {
			ranks[pos].minOrder = field.Order
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].minOrder < ranks[j].minOrder
	})

	out := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, rank.key)
	}
	return out
}

// ActiveStages returns the active pipeline stages sorted by order ascending.
func (c Config) ActiveStages() []StageDescriptor {
	var out []StageDescriptor
	for _, stage := range c.KanbanStages {
		if stage.IsActive() {
			out = append(out, stage)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// Field looks up a descriptor by field name.
func (c Config) Field(name string) (FieldDescriptor, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// FieldOptions returns the option list for a field, empty when the field is
// unknown or carries no options.
func (c Config) FieldOptions(name string) []Option {
	field, ok := c.Field(name)
	if !ok {
		return nil
	}
	return field.Options
}

// Stage looks up a stage descriptor by its stable value, including inactive
// stages so historical records remain resolvable.
func (c Config) Stage(value string) (StageDescriptor, bool) {
	for _, stage := range c.KanbanStages {
		if stage.Value == value {
			return stage, true
		}
	}
	return StageDescriptor{}, false
}

// InitialValues produces the starting form values, one entry per field.
func (c Config) InitialValues() FormValues {
	out := make(FormValues, len(c.Fields))
	for _, field := range c.Fields {
		out[field.Name] = field.InitialValue()
	}
	return out
}

// ValidateRequired returns one error message per required field whose value
// is missing. Non-required fields are never checked.
func (c Config) ValidateRequired(values FormValues) map[string]string {
	errs := make(map[string]string)
	for _, field := range c.RequiredFields() {
		if IsEmptyValue(values[field.Name]) {
			errs[field.Name] = fmt.Sprintf("%s is required", field.Label)
		}
	}
	return errs
}
