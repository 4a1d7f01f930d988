package thread

import "strings"

// Flattened is the canonical depth-first linearization of a comment
// forest: each root in the given order, followed by the flattening of
// its replies. Positions in the list are protocol indices, so the
// traversal order must be reproduced exactly on both sides.
type Flattened struct {
	comments []*Comment
	index    map[string]int
}

// Flatten linearizes the forest in pre-order. Nodes reachable more than
// once (corrupted forests can alias subtrees) are visited a single time.
func Flatten(roots []*Comment) *Flattened {
	f := &Flattened{index: make(map[string]int)}
	seen := make(map[*Comment]struct{})
	var walk func(cs []*Comment)
	walk = func(cs []*Comment) {
		for _, c := range cs {
			if c == nil {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			if _, taken := f.index[c.ID]; !taken {
				f.index[c.ID] = len(f.comments)
			}
			f.comments = append(f.comments, c)
			walk(c.Replies)
		}
	}
	walk(roots)
	return f
}

// Len returns the number of flattened comments.
func (f *Flattened) Len() int {
	return len(f.comments)
}

// At returns the i-th comment in canonical order.
func (f *Flattened) At(i int) *Comment {
	return f.comments[i]
}

// Comments returns the full canonical list.
func (f *Flattened) Comments() []*Comment {
	return f.comments
}

// Resolve looks up a comment by parent-id. When the id itself is
// unknown and has the form "<prefix>_<id>", the suffix after the last
// underscore is tried as well. This tolerance is part of the protocol:
// upstream ids arrive both bare ("abc") and fullname-prefixed
// ("t1_abc"), and both sides must resolve them the same way.
func (f *Flattened) Resolve(parentID string) (*Comment, bool) {
	if i, ok := f.index[parentID]; ok {
		return f.comments[i], true
	}
	if cut := strings.LastIndexByte(parentID, '_'); cut >= 0 {
		if i, ok := f.index[parentID[cut+1:]]; ok {
			return f.comments[i], true
		}
	}
	return nil, false
}

// Chain reconstructs the ancestor chain of target, root-first and
// ending with target itself. The walk stops when a parent-id equals the
// thread-root-id, when a parent cannot be resolved, or when an id
// repeats (cycles through corrupted parent-ids must terminate).
func (f *Flattened) Chain(target *Comment) []*Comment {
	chain := []*Comment{target}
	visited := map[string]struct{}{target.ID: {}}
	cur := target
	for cur.ParentID != "" && cur.ParentID != cur.LinkID {
		parent, ok := f.Resolve(cur.ParentID)
		if !ok {
			break
		}
		if _, loop := visited[parent.ID]; loop {
			tracer().Errorf("parent cycle at comment %s, truncating chain", parent.ID)
			break
		}
		visited[parent.ID] = struct{}{}
		chain = append([]*Comment{parent}, chain...)
		cur = parent
	}
	return chain
}
