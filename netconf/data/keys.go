package data

// ListKeys maps the local name of a list to the local names of its key leaves, in key order.
// It stands in for the schema where list entries must be recognised in a value tree.
type ListKeys map[string][]string

// Of delivers the key names of the list named name, or nil if it is not a known list.
func (lk ListKeys) Of(name QName) []string {
	if lk == nil {
		return nil
	}
	return lk[name.Local]
}

// EntryArg delivers the path argument identifying n, including key predicates when n is a known list entry.
func (lk ListKeys) EntryArg(n *Node) PathArgument {
	arg := PathArgument{Name: n.Name}
	for _, k := range lk.Of(n.Name) {
		leaf := n.Child(func(q QName) bool { return q.Local == k }, true)
		if leaf == nil {
			continue
		}
		arg.Keys = append(arg.Keys, KeyValue{Name: leaf.Name, Value: leaf.Value})
	}
	return arg
}
