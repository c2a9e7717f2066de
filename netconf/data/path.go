package data

import (
	"strings"

	"github.com/pkg/errors"
)

// KeyValue is a single list-key predicate.
type KeyValue struct {
	Name  QName
	Value string
}

// PathArgument identifies one step of a Path. A list entry step carries its key predicates.
type PathArgument struct {
	Name QName
	Keys []KeyValue
}

// Arg delivers a path argument for a container, leaf or list without predicates.
func Arg(name QName) PathArgument {
	return PathArgument{Name: name}
}

// Entry delivers a list entry path argument, where keyValues are supplied as alternating local key names and values.
// Keys take the namespace of the entry.
func Entry(name QName, keyValues ...string) PathArgument {
	arg := PathArgument{Name: name}
	for i := 0; i+1 < len(keyValues); i += 2 {
		arg.Keys = append(arg.Keys, KeyValue{Name: QName{Namespace: name.Namespace, Local: keyValues[i]}, Value: keyValues[i+1]})
	}
	return arg
}

// IsListEntry returns true if the argument carries key predicates.
func (a PathArgument) IsListEntry() bool {
	return len(a.Keys) > 0
}

// HasKey returns true if name matches one of the argument's key predicates.
func (a PathArgument) HasKey(name QName) bool {
	for _, k := range a.Keys {
		if k.Name.Matches(name) {
			return true
		}
	}
	return false
}

func (a PathArgument) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name.Local)
	for _, k := range a.Keys {
		sb.WriteString("[")
		sb.WriteString(k.Name.Local)
		sb.WriteString("=")
		sb.WriteString(k.Value)
		sb.WriteString("]")
	}
	return sb.String()
}

// Path is an ordered sequence of path arguments, from the root of the data tree.
type Path []PathArgument

// Last delivers the deepest argument of the path.
func (p Path) Last() PathArgument {
	return p[len(p)-1]
}

// IsEmpty returns true if the path has no arguments.
func (p Path) IsEmpty() bool {
	return len(p) == 0
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, a := range p {
		sb.WriteString("/")
		sb.WriteString(a.String())
	}
	return sb.String()
}

// Namespace binds a prefix to a namespace URI for use in path expressions.
type Namespace struct {
	ID   string
	Path string
}

// ParsePath parses a path expression of the form /p:a/b[key=1][other='x']/c.
// Prefixes are resolved against nslist; an unprefixed segment inherits the namespace of its parent.
func ParsePath(expr string, nslist ...Namespace) (Path, error) {
	prefixes := map[string]string{}
	for _, ns := range nslist {
		prefixes[ns.ID] = ns.Path
	}

	segments, err := splitSegments(expr)
	if err != nil {
		return nil, err
	}

	var path Path
	parentNS := ""
	for _, seg := range segments {
		arg, err := parseSegment(seg, parentNS, prefixes)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path %q", expr)
		}
		parentNS = arg.Name.Namespace
		path = append(path, arg)
	}
	return path, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for tests and static paths.
func MustParsePath(expr string, nslist ...Namespace) Path {
	p, err := ParsePath(expr, nslist...)
	if err != nil {
		panic(err)
	}
	return p
}

// splitSegments splits expr on '/', ignoring separators inside predicates.
func splitSegments(expr string) ([]string, error) {
	var (
		segments []string
		current  strings.Builder
		depth    int
		quote    rune
	)
	for _, r := range strings.TrimSpace(expr) {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			if depth > 0 {
				quote = r
			}
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth < 0 {
				return nil, errors.Errorf("unbalanced predicate in %q", expr)
			}
		case r == '/' && depth == 0:
			if current.Len() > 0 {
				segments = append(segments, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}
	if depth != 0 || quote != 0 {
		return nil, errors.Errorf("unterminated predicate in %q", expr)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments, nil
}

func parseSegment(seg, parentNS string, prefixes map[string]string) (arg PathArgument, err error) {
	name := seg
	preds := ""
	if i := strings.IndexByte(seg, '['); i >= 0 {
		name, preds = seg[:i], seg[i:]
	}

	if arg.Name, err = resolveName(name, parentNS, prefixes); err != nil {
		return
	}

	for preds != "" {
		end := predicateEnd(preds)
		if !strings.HasPrefix(preds, "[") || end < 0 {
			return arg, errors.Errorf("malformed predicate %q", preds)
		}
		body := preds[1:end]
		preds = preds[end+1:]

		eq := strings.IndexByte(body, '=')
		if eq <= 0 {
			return arg, errors.Errorf("predicate %q has no key", body)
		}
		var key QName
		if key, err = resolveName(strings.TrimSpace(body[:eq]), arg.Name.Namespace, prefixes); err != nil {
			return
		}
		arg.Keys = append(arg.Keys, KeyValue{Name: key, Value: unquote(strings.TrimSpace(body[eq+1:]))})
	}
	return
}

func predicateEnd(s string) int {
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ']':
			return i
		}
	}
	return -1
}

func resolveName(name, parentNS string, prefixes map[string]string) (QName, error) {
	if name == "" {
		return QName{}, errors.New("empty path segment")
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		ns, ok := prefixes[name[:i]]
		if !ok {
			return QName{}, errors.Errorf("unknown prefix %q", name[:i])
		}
		return QName{Namespace: ns, Local: name[i+1:]}, nil
	}
	return QName{Namespace: parentNS, Local: name}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
