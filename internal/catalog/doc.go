// Package catalog talks to the upstream device-twin catalog.
//
// The catalog exposes two families of entities over REST:
//
//   - Device templates: versioned capability-model documents describing what
//     a class of devices reports (properties, telemetry, nested components).
//   - Devices: concrete instances of a template, with their current
//     property values.
//
// Both carry an opaque etag that changes whenever the entity changes; the
// sync orchestrator diffs on these tags rather than deep-comparing
// documents.
//
// This package also owns the raw capability-model document types and their
// parsing rules. Document content kinds form a closed variant (ContentKind):
// classification happens once at the parsing boundary, and unrecognised
// kinds surface as an explicit error instead of falling through.
package catalog
