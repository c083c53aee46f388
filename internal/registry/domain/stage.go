package domain

// StageDescriptor is one pipeline stage of an entity's status field.
// Inactive stages are excluded from the active pipeline view but stay
// resolvable for historical records that still reference them.
type StageDescriptor struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
	Order  int    `json:"order,omitempty"`
	Active *bool  `json:"is_active,omitempty"`
}

// IsActive reports whether the stage belongs to the active pipeline.
// Absent means active.
func (s StageDescriptor) IsActive() bool {
	return s.Active == nil || *s.Active
}
