// Package data defines the normalized value tree exchanged with a NETCONF device: qualified
// names, instance paths with list-key predicates, tree nodes and the edit operations that
// can be applied to them.
package data
