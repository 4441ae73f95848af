package transform

import (
	"fmt"
	"strings"

	"github.com/twinbridge/twinbridge-core/internal/catalog"
	"github.com/twinbridge/twinbridge-core/internal/model"
	"github.com/twinbridge/twinbridge-core/internal/units"
)

// Extraction is the result of transforming one capability model.
type Extraction struct {
	// Attributes are the root template's own attribute types, inherited
	// interfaces first, then the root's contents, in document order.
	Attributes []model.AttributeType

	// ChildTypes are the equipment types synthesised from component nodes,
	// in document order. Each carries its own attribute list; the caller
	// wires the parent's child links from these.
	ChildTypes []model.EquipmentType

	// Enumerations are every enumeration type referenced by any attribute
	// in the document, root and components alike, in encounter order.
	Enumerations []model.EnumerationType
}

// Extract transforms one capability-model document into type-graph parts.
//
// library is the namespace segment all produced FQNs are rooted in
// (TwinBridge uses the catalog application id).
//
// Extraction fails with ErrInvalidSchema on any structurally malformed
// node and with UnmappedUnitError when a declared unit has no canonical
// mapping. On error no partial output is returned.
func Extract(library string, doc *catalog.Interface) (*Extraction, error) {
	ex := &Extraction{}

	// Inherited interfaces flatten into the root's attribute list.
	for i := range doc.Extends {
		if err := ex.extractInterface(library, &doc.Extends[i]); err != nil {
			return nil, err
		}
	}

	for i := range doc.Contents {
		content := &doc.Contents[i]
		switch content.Kind() {
		case catalog.KindProperty, catalog.KindTelemetry:
			attr, err := ex.buildAttribute(library, content)
			if err != nil {
				return nil, err
			}
			ex.Attributes = append(ex.Attributes, attr)

		case catalog.KindComponent:
			if err := ex.extractComponent(library, content); err != nil {
				return nil, err
			}

		case catalog.KindCommand:
			// Commands carry no persistable state. Ignored.

		case catalog.KindUnknown:
			return nil, fmt.Errorf("%w: unrecognised content kind %v for %q",
				ErrInvalidSchema, content.Type, content.Name)
		}
	}

	return ex, nil
}

// extractInterface flattens one inherited interface's contents into the
// root attribute list. Schema-less nodes (commands) are skipped; component
// nesting is not permitted inside inherited interfaces.
func (ex *Extraction) extractInterface(library string, iface *catalog.Interface) error {
	for i := range iface.Contents {
		content := &iface.Contents[i]
		if content.Schema.IsZero() {
			continue
		}

		attr, err := ex.buildAttribute(library, content)
		if err != nil {
			return err
		}
		ex.Attributes = append(ex.Attributes, attr)
	}
	return nil
}

// extractComponent synthesises a nested equipment type from a component
// node. The component's schema is itself an interface document; its
// attributes belong to the component type only, while enumeration types
// are harvested globally. Components do not nest further.
func (ex *Extraction) extractComponent(library string, content *catalog.Content) error {
	iface, err := content.Schema.Interface()
	if err != nil {
		return fmt.Errorf("%w: component %q: %v", ErrInvalidSchema, content.Name, err)
	}

	name := strings.ToLower(content.Name)
	child := model.EquipmentType{
		Fqn:          model.NewFQN(library, name),
		RelativeName: name,

		// The component node's own displayName is just "Component";
		// the meaningful name lives on the nested schema document.
		DisplayName: iface.DisplayName.String(),
	}

	// Collect the component's attributes into its own list, not the root's.
	componentAttrs := make([]model.AttributeType, 0, len(iface.Contents))
	for i := range iface.Contents {
		node := &iface.Contents[i]
		if node.Schema.IsZero() {
			continue
		}
		attr, err := ex.buildAttribute(library, node)
		if err != nil {
			return err
		}
		componentAttrs = append(componentAttrs, attr)
	}
	child.Attributes = componentAttrs

	ex.ChildTypes = append(ex.ChildTypes, child)
	return nil
}

// buildAttribute converts one property/telemetry node into an attribute
// type, synthesising an enumeration type when the schema is an Enum.
func (ex *Extraction) buildAttribute(library string, content *catalog.Content) (model.AttributeType, error) {
	attr := model.AttributeType{
		RelativeName: strings.ToLower(content.Name),
		DisplayName:  content.DisplayName.String(),
		Description:  content.Description,
	}

	// Telemetry is recorded as continuously-sampled data; everything else
	// (properties) is configuration-like.
	if content.Kind() == catalog.KindTelemetry {
		attr.SourceCategory = model.SourceDynamic
	} else {
		attr.SourceCategory = model.SourceConfig
	}

	switch {
	case content.Schema.IsZero():
		return model.AttributeType{}, fmt.Errorf("%w: node %q has no schema",
			ErrInvalidSchema, content.Name)

	default:
		if keyword, ok := content.Schema.Keyword(); ok {
			attr.DataType = dataTypeForKeyword(keyword)
			break
		}

		obj, ok := content.Schema.Object()
		if !ok {
			return model.AttributeType{}, fmt.Errorf("%w: node %q has a schema that is neither a keyword nor an object",
				ErrInvalidSchema, content.Name)
		}
		if obj.Type == "" {
			return model.AttributeType{}, fmt.Errorf("%w: node %q schema @type cannot be empty",
				ErrInvalidSchema, content.Name)
		}
		if obj.Type != "Enum" {
			return model.AttributeType{}, fmt.Errorf("%w: schema kind %q on node %q is not handled",
				ErrInvalidSchema, obj.Type, content.Name)
		}

		enum, err := buildEnumeration(library, content.Name, obj)
		if err != nil {
			return model.AttributeType{}, err
		}
		ex.Enumerations = append(ex.Enumerations, enum)

		attr.DataType = model.DataTypeEnumeration
		attr.EnumerationTypeFqn = enum.Fqn
		attr.DefaultEnumerationValues = enum.Values
	}

	if content.Unit != "" {
		unitFqn, ok := units.Resolve(content.Unit)
		if !ok {
			return model.AttributeType{}, &UnmappedUnitError{Unit: content.Unit}
		}
		attr.MeasurementUnitFqn = unitFqn
	}

	return attr, nil
}

// buildEnumeration synthesises an enumeration type from an Enum schema,
// preserving value/display-name pairs in document order.
func buildEnumeration(library, owner string, obj *catalog.SchemaObject) (model.EnumerationType, error) {
	if obj.ID == "" {
		return model.EnumerationType{}, fmt.Errorf("%w: enum schema on node %q has no identifier",
			ErrInvalidSchema, owner)
	}
	if obj.EnumValues == nil {
		return model.EnumerationType{}, fmt.Errorf("%w: enum schema %q has no enumValues array",
			ErrInvalidSchema, obj.ID)
	}

	values := make([]string, len(obj.EnumValues))
	names := make([]string, len(obj.EnumValues))
	for i, ev := range obj.EnumValues {
		values[i] = ev.ValueString()
		names[i] = ev.DisplayName
	}

	return model.EnumerationType{
		Fqn:          model.NewFQN(library, obj.ID),
		RelativeName: obj.ID,
		Names:        names,
		Values:       values,
	}, nil
}

// dataTypeForKeyword maps a primitive schema keyword to its canonical tag.
// Unrecognised keywords (complex type names, vendor extensions) map to
// object and are stored in their serialised JSON form.
func dataTypeForKeyword(keyword string) model.DataType {
	switch keyword {
	case "boolean":
		return model.DataTypeBool
	case "integer", "long":
		return model.DataTypeInt
	case "float", "double":
		return model.DataTypeFloat
	case "string":
		return model.DataTypeString
	case "dateTime":
		return model.DataTypeDateTime
	case "duration":
		return model.DataTypeInterval
	case "geopoint":
		return model.DataTypeGeopoint
	default:
		return model.DataTypeObject
	}
}
