package model

import "strings"

// DataType is the canonical scalar type tag for an attribute.
// The set matches the store's scalar type enum exactly.
type DataType string

// DataType constants.
const (
	DataTypeBool        DataType = "bool"
	DataTypeInt         DataType = "int"
	DataTypeFloat       DataType = "float"
	DataTypeString      DataType = "string"
	DataTypeDateTime    DataType = "datetime"
	DataTypeInterval    DataType = "interval"
	DataTypeObject      DataType = "object"
	DataTypeEnumeration DataType = "enumeration"
	DataTypeGeopoint    DataType = "geopoint"
)

// AllDataTypes returns all valid data type tags.
func AllDataTypes() []DataType {
	return []DataType{
		DataTypeBool, DataTypeInt, DataTypeFloat, DataTypeString,
		DataTypeDateTime, DataTypeInterval, DataTypeObject,
		DataTypeEnumeration, DataTypeGeopoint,
	}
}

// ParseDataType converts a store-side tag string to a DataType.
// Returns false if the tag is not a member of the closed set.
func ParseDataType(s string) (DataType, bool) {
	switch DataType(s) {
	case DataTypeBool, DataTypeInt, DataTypeFloat, DataTypeString,
		DataTypeDateTime, DataTypeInterval, DataTypeObject,
		DataTypeEnumeration, DataTypeGeopoint:
		return DataType(s), true
	default:
		return "", false
	}
}

// SourceCategory classifies how an attribute's values originate.
type SourceCategory string

// SourceCategory constants.
const (
	// SourceDynamic marks telemetry-origin attributes (continuously sampled).
	SourceDynamic SourceCategory = "dynamic"

	// SourceConfig marks property-origin attributes (configuration-like).
	SourceConfig SourceCategory = "config"
)

// FQN is an ordered path of lowercase name segments uniquely locating a
// type or instance, library-root (or hierarchy-root) first. It serialises
// as a JSON string array.
type FQN []string

// NewFQN builds an FQN from path segments, case-normalising each one.
func NewFQN(segments ...string) FQN {
	fqn := make(FQN, len(segments))
	for i, s := range segments {
		fqn[i] = strings.ToLower(s)
	}
	return fqn
}

// Child returns a new FQN with name appended (case-normalised).
// The receiver is not modified.
func (f FQN) Child(name string) FQN {
	child := make(FQN, len(f)+1)
	copy(child, f)
	child[len(f)] = strings.ToLower(name)
	return child
}

// String joins the segments with dots for logging and map keys.
func (f FQN) String() string {
	return strings.Join(f, ".")
}

// Equal reports whether two FQNs have identical segments.
func (f FQN) Equal(other FQN) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// Document is an opaque key/value map persisted alongside an entity.
// TwinBridge uses it to carry the upstream version fingerprint.
type Document map[string]string

// FingerprintKey is the Document key holding the upstream version tag.
const FingerprintKey = "etag"

// EquipmentType describes a typed asset class in the downstream store.
type EquipmentType struct {
	Fqn            FQN                  `json:"fqn"`
	RelativeName   string               `json:"relative_name"`
	DisplayName    string               `json:"display_name,omitempty"`
	Description    string               `json:"description,omitempty"`
	Document       Document             `json:"document,omitempty"`
	Attributes     []AttributeType      `json:"attributes,omitempty"`
	ChildEquipment []ChildEquipmentLink `json:"child_equipment,omitempty"`
}

// AttributeType describes one declared attribute of an equipment type.
type AttributeType struct {
	RelativeName       string         `json:"relative_name"`
	DisplayName        string         `json:"display_name,omitempty"`
	Description        string         `json:"description,omitempty"`
	DataType           DataType       `json:"data_type"`
	SourceCategory     SourceCategory `json:"source_category"`
	MeasurementUnitFqn FQN            `json:"default_measurement_unit_fqn,omitempty"`
	EnumerationTypeFqn FQN            `json:"enumeration_type_fqn,omitempty"`

	// DefaultEnumerationValues mirrors the owning enumeration's raw values.
	// Present only when DataType is DataTypeEnumeration.
	DefaultEnumerationValues []string `json:"default_enumeration_values,omitempty"`
}

// EnumerationType is a named vocabulary of raw values and display names.
// Values and Names are parallel arrays, order-preserved from the source
// document; they are always the same length.
type EnumerationType struct {
	Fqn          FQN      `json:"fqn"`
	RelativeName string   `json:"relative_name"`
	Names        []string `json:"enumeration_names"`
	Values       []string `json:"default_enumeration_values"`
}

// ChildEquipmentLink is a named reference from a parent equipment type to a
// nested equipment type. The parent stores only this reference, never the
// child's attributes.
type ChildEquipmentLink struct {
	RelativeName string `json:"relative_name"`
	DisplayName  string `json:"display_name,omitempty"`
	ChildTypeFqn FQN    `json:"child_type_fqn"`
}

// Equipment is a concrete asset instance.
type Equipment struct {
	RelativeName string           `json:"relative_name"`
	DisplayName  string           `json:"display_name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Document     Document         `json:"document,omitempty"`
	Fqn          FQN              `json:"fqn"`
	TypeFqn      FQN              `json:"type_fqn"`
	Attributes   []AttributeValue `json:"attributes,omitempty"`
}

// AttributeValue is one resolved configuration attribute of an instance.
// Value is a primitive, a JSON-shaped object, or a lon/lat pair.
type AttributeValue struct {
	RelativeName string `json:"relative_name"`
	Fqn          FQN    `json:"fqn"`
	Value        any    `json:"value"`
}

// Geopoint is a longitude/latitude pair.
type Geopoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}
