package data

import "fmt"

// QName is a namespace qualified node name. Revision identifies the schema revision the
// name was defined in; devices commonly echo names without it.
type QName struct {
	Namespace string
	Revision  string
	Local     string
}

// Name delivers a QName without revision.
func Name(namespace, local string) QName {
	return QName{Namespace: namespace, Local: local}
}

// WithoutRevision delivers a copy of q with the revision removed.
func (q QName) WithoutRevision() QName {
	q.Revision = ""
	return q
}

// Matches returns true if q and o have the same namespace and local name, regardless of revision.
func (q QName) Matches(o QName) bool {
	return q.Namespace == o.Namespace && q.Local == o.Local
}

func (q QName) String() string {
	switch {
	case q.Namespace == "":
		return q.Local
	case q.Revision == "":
		return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
	default:
		return fmt.Sprintf("{%s?revision=%s}%s", q.Namespace, q.Revision, q.Local)
	}
}
