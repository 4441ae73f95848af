// Package transform converts capability-model documents into the
// normalised type graph the downstream store imports.
//
// One call to Extract handles one device template's capability model and
// yields the template's own attribute types, the equipment types synthesised
// from its components, and every enumeration type referenced anywhere in the
// document. Inherited interfaces (the extends list) are flattened into the
// root's attribute list; inheritance is flattening, not subtyping.
//
// Extraction is all-or-nothing: any malformed node or unmapped unit fails
// the whole call with no partial output, which in turn fails the sync cycle
// that requested it. See the sync package for the retry consequences.
package transform
