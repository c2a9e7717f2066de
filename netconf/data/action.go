package data

import (
	"strings"

	"github.com/pkg/errors"
)

// ModifyAction defines the edit-config operation attribute values.
type ModifyAction int

const (
	// Unspecified indicates that no operation attribute is applied.
	Unspecified ModifyAction = iota
	Merge
	Replace
	Create
	Delete
	Remove
	None
)

var actionNames = map[ModifyAction]string{
	Merge:   "merge",
	Replace: "replace",
	Create:  "create",
	Delete:  "delete",
	Remove:  "remove",
	None:    "none",
}

// String delivers the NETCONF representation of the action.
func (a ModifyAction) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return ""
}

// IsSpecified returns true if the action carries an operation.
func (a ModifyAction) IsSpecified() bool {
	return a != Unspecified
}

// ParseModifyAction maps a NETCONF operation name to its action.
func ParseModifyAction(s string) (ModifyAction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return Unspecified, errors.Errorf("unknown operation %q", s)
}
