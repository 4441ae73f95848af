package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentKind classifies a capability-model content node. The set is
// closed: anything the parser cannot classify becomes KindUnknown, and
// callers must treat KindUnknown as a schema error rather than skipping it.
type ContentKind int

// ContentKind constants.
const (
	KindUnknown ContentKind = iota
	KindProperty
	KindTelemetry
	KindComponent
	KindCommand
)

// String returns the kind name for logging.
func (k ContentKind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindTelemetry:
		return "telemetry"
	case KindComponent:
		return "component"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// TypeNames holds the @type field of a content node, which upstream
// serialises as either a single string or an array of strings
// (e.g. ["Telemetry", "Temperature"] for semantic-type annotations).
type TypeNames []string

// UnmarshalJSON accepts both the string and the array encoding.
func (t *TypeNames) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeNames{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("@type must be a string or string array: %w", err)
	}
	*t = TypeNames(many)
	return nil
}

// Contains reports whether any of the declared type names equals name.
func (t TypeNames) Contains(name string) bool {
	for _, n := range t {
		if n == name {
			return true
		}
	}
	return false
}

// LocalizedString holds a display name that upstream serialises as either
// a plain string or a language-tag map such as {"en": "Trailer"}.
type LocalizedString string

// UnmarshalJSON accepts both encodings. For maps, the "en" entry wins;
// otherwise the lexically-first entry is used so decoding is deterministic.
func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = LocalizedString(plain)
		return nil
	}

	var byLang map[string]string
	if err := json.Unmarshal(data, &byLang); err != nil {
		return fmt.Errorf("displayName must be a string or language map: %w", err)
	}
	if v, ok := byLang["en"]; ok {
		*l = LocalizedString(v)
		return nil
	}
	first := ""
	for lang, v := range byLang {
		if first == "" || lang < first {
			first = lang
			*l = LocalizedString(v)
		}
	}
	return nil
}

// String returns the resolved display name.
func (l LocalizedString) String() string { return string(l) }

// Interface is one capability-model interface document: the root of a
// device template's capability model, an inherited interface from the
// extends list, or a component's nested schema.
type Interface struct {
	ID          string          `json:"@id,omitempty"`
	Name        string          `json:"name,omitempty"`
	DisplayName LocalizedString `json:"displayName,omitempty"`
	Contents    []Content       `json:"contents,omitempty"`
	Extends     []Interface     `json:"extends,omitempty"`
}

// Content is one node of an interface's contents list.
type Content struct {
	Type        TypeNames       `json:"@type"`
	Name        string          `json:"name"`
	DisplayName LocalizedString `json:"displayName,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Schema      SchemaNode      `json:"schema,omitempty"`
}

// Kind classifies the node into the closed content variant.
//
// Array-valued @type combining Property/Telemetry with semantic annotations
// classifies by the capability member; Telemetry wins when both appear
// (it cannot in well-formed documents, but the tie-break keeps Kind total).
func (c *Content) Kind() ContentKind {
	if c.Type.Contains("Telemetry") {
		return KindTelemetry
	}
	if c.Type.Contains("Property") {
		return KindProperty
	}
	if len(c.Type) == 1 {
		switch strings.ToLower(c.Type[0]) {
		case "component":
			return KindComponent
		case "command":
			return KindCommand
		}
	}
	return KindUnknown
}

// SchemaNode is a content node's schema: either a primitive keyword string
// ("double", "boolean", ...) or a structured object (an Enum definition, or
// for components a nested interface document). The raw bytes are kept so
// each consumer can decode the shape it expects.
type SchemaNode struct {
	raw json.RawMessage
}

// UnmarshalJSON keeps the raw encoding for later shape-specific decoding.
func (s *SchemaNode) UnmarshalJSON(data []byte) error {
	s.raw = append(s.raw[:0], data...)
	return nil
}

// MarshalJSON round-trips the raw encoding.
func (s SchemaNode) MarshalJSON() ([]byte, error) {
	if s.raw == nil {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// IsZero reports whether the node carried no schema at all.
func (s SchemaNode) IsZero() bool {
	return len(s.raw) == 0 || string(s.raw) == "null"
}

// Keyword returns the primitive schema keyword when the schema is a plain
// string, and false otherwise.
func (s SchemaNode) Keyword() (string, bool) {
	var kw string
	if err := json.Unmarshal(s.raw, &kw); err != nil {
		return "", false
	}
	return kw, true
}

// Object decodes the schema as a structured schema definition.
// Returns false when the schema is not a JSON object.
func (s SchemaNode) Object() (*SchemaObject, bool) {
	if len(s.raw) == 0 || s.raw[0] != '{' {
		return nil, false
	}
	var obj SchemaObject
	if err := json.Unmarshal(s.raw, &obj); err != nil {
		return nil, false
	}
	return &obj, true
}

// Interface decodes the schema as a nested interface document (the shape
// carried by component nodes).
func (s SchemaNode) Interface() (*Interface, error) {
	var iface Interface
	if err := json.Unmarshal(s.raw, &iface); err != nil {
		return nil, fmt.Errorf("decoding component schema: %w", err)
	}
	return &iface, nil
}

// SchemaObject is a structured (non-primitive) schema definition.
type SchemaObject struct {
	Type        string          `json:"@type"`
	ID          string          `json:"@id"`
	DisplayName LocalizedString `json:"displayName,omitempty"`
	EnumValues  []EnumValue     `json:"enumValues,omitempty"`
}

// EnumValue is one entry of an Enum schema. The raw value may be encoded
// as a JSON string or number upstream; ValueString normalises both to the
// textual form the store expects.
type EnumValue struct {
	Value       json.RawMessage `json:"enumValue"`
	DisplayName string          `json:"displayName"`
}

// ValueString returns the raw enum value in textual form: strings are
// unquoted, numbers keep their source representation.
func (v EnumValue) ValueString() string {
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v.Value))
}
