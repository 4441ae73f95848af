package model

import "time"

// PackageMeta describes one submitted batch. The store treats it as
// informational; TwinBridge uses it to correlate log lines with imports.
type PackageMeta struct {
	ID        string    `json:"id"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TypePackage is one atomic batch of type-system changes. A sync cycle
// merges every changed entity into a single package and submits it as one
// write: either the whole package is accepted or none of it is.
type TypePackage struct {
	Meta             PackageMeta       `json:"meta"`
	EnumerationTypes []EnumerationType `json:"enumeration_types"`
	EquipmentTypes   []EquipmentType   `json:"equipment_types"`
}

// IsEmpty reports whether the package carries no type changes.
func (p *TypePackage) IsEmpty() bool {
	return len(p.EnumerationTypes) == 0 && len(p.EquipmentTypes) == 0
}

// InstancePackage is one atomic batch of equipment instance changes,
// ordered as collected from the catalog snapshot.
type InstancePackage struct {
	Meta      PackageMeta `json:"meta"`
	Equipment []Equipment `json:"equipment"`
}

// IsEmpty reports whether the package carries no instances.
func (p *InstancePackage) IsEmpty() bool {
	return len(p.Equipment) == 0
}
