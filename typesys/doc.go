// Package typesys detects runtime type tags of node output values and
// defines the compatibility relation used to label connections.
//
// Compatibility never blocks execution; it only annotates edges so callers
// can highlight suspicious connections.
package typesys
