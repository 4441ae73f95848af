// Package model defines the normalised type graph and instance entities that
// TwinBridge produces from upstream capability models, plus the wire shapes
// (TypePackage, InstancePackage) submitted to the downstream store.
//
// # Key Types
//
//   - EquipmentType: a typed asset class with attributes and child links
//   - AttributeType: one declared property/telemetry stream of a type
//   - EnumerationType: a named, ordered value/display-name vocabulary
//   - Equipment: a concrete asset instance with configuration attributes
//   - FQN: ordered path of lowercase name segments locating an entity
//   - DataType: the closed set of canonical scalar type tags
//
// All entities serialise to the snake_case JSON the store's import
// procedures consume. Field order inside slices is significant and is
// preserved from the upstream document.
package model
