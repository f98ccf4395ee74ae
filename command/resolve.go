package command

// Resolve walks path from root through the live object graph and returns the
// object it names. Nothing is cached: every call reflects the graph as it is
// now. A step that names nothing yields a *SelectError carrying the full path.
func Resolve(root Object, path Path) (Object, error) {
	return resolve(root, path, path)
}

func resolve(o Object, rest, full Path) (Object, error) {
	if len(rest) == 0 {
		return o, nil
	}
	step := rest[0]
	if !valid(Items(o, step.Category), step.Selector) {
		return nil, &SelectError{Step: step, Path: full}
	}
	child := o.Select(step.Category, step.Selector)
	if child == nil {
		return nil, &SelectError{Step: step, Path: full}
	}
	return resolve(child, rest[1:], full)
}

// valid applies the selection rules: a bare reference needs RootOK, and a
// selector must be one of the listed members. A category without enumerable
// members accepts no selector at all.
func valid(list ItemList, sel Selector) bool {
	if sel.IsNone() {
		return list.RootOK
	}
	if list.Selectors == nil {
		return false
	}
	return list.Contains(sel)
}
