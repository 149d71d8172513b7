package ast

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, sub := range n.Sub {
		Walk(sub, fn)
	}
}

// HasOp reports whether any node in the tree has one of the given ops.
func HasOp(n *Node, ops ...Op) bool {
	found := false
	Walk(n, func(m *Node) bool {
		if found {
			return false
		}
		for _, op := range ops {
			if m.Op == op {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// CaptureNames returns the capture group names in group order. Group 0 is
// always the full match and unnamed groups have an empty name.
func CaptureNames(n *Node) []string {
	names := []string{""}
	Walk(n, func(m *Node) bool {
		switch m.Op {
		case OpCapture:
			names = append(names, "")
		case OpNamedCapture:
			names = append(names, m.Name)
		}
		return true
	})
	return names
}

// HasRepeatingCaptures reports whether a capture group sits inside a
// quantifier.
func HasRepeatingCaptures(n *Node) bool {
	return walkCheckRepeating(n, false)
}

func walkCheckRepeating(n *Node, inRepeat bool) bool {
	if n == nil {
		return false
	}
	if (n.Op == OpCapture || n.Op == OpNamedCapture) && inRepeat {
		return true
	}

	isRepeating := false
	switch n.Op {
	case OpMany, OpSome, OpOptional, OpRepeat:
		isRepeating = true
	}

	for _, sub := range n.Sub {
		if walkCheckRepeating(sub, inRepeat || isRepeating) {
			return true
		}
	}
	return false
}

// StarHeight returns the maximum nesting depth of quantifiers.
func StarHeight(n *Node) int {
	if n == nil {
		return 0
	}
	depth := 0
	for _, sub := range n.Sub {
		depth = max(depth, StarHeight(sub))
	}
	switch n.Op {
	case OpMany, OpSome, OpOptional, OpRepeat:
		depth++
	}
	return depth
}
