// Package util provides helpers shared by the flow engine and the node
// library: dotted path lookup into decoded values, loose value coercion,
// and small generic slice and map operations.
package util
