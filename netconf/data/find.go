package data

// FindNode walks path from the children of root and delivers the node it identifies, or nil.
// Each step tries, in order: a composite child with the exact name, a composite child with the
// name without revision, then the same two lookups for leaf children. Devices frequently echo
// namespaces without the revision, hence the fallbacks. For list entry steps a composite child
// whose key leaves match the predicates is required.
func FindNode(root *Node, path Path) *Node {
	current := root
	for _, arg := range path {
		if current == nil || current.IsLeaf() {
			return nil
		}
		current = findChild(current, arg)
	}
	return current
}

func findChild(n *Node, arg PathArgument) *Node {
	exact := func(q QName) bool { return q == arg.Name }
	noRevision := func(q QName) bool { return q.WithoutRevision() == arg.Name.WithoutRevision() }

	if arg.IsListEntry() {
		for _, c := range n.Children {
			if !c.IsLeaf() && noRevision(c.Name) && keysMatch(c, arg) {
				return c
			}
		}
		return nil
	}

	if c := n.Child(exact, false); c != nil {
		return c
	}
	if c := n.Child(noRevision, false); c != nil {
		return c
	}
	if c := n.Child(exact, true); c != nil {
		return c
	}
	return n.Child(noRevision, true)
}

func keysMatch(n *Node, arg PathArgument) bool {
	for _, k := range arg.Keys {
		leaf := n.Child(func(q QName) bool { return q.Matches(k.Name) }, true)
		if leaf == nil || leaf.Value != k.Value {
			return false
		}
	}
	return true
}
