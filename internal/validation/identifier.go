// Package validation locates and accumulates codec validation failures.
package validation

import "fmt"

// Kind is the level of the score hierarchy an Identifier points at.
type Kind int

const (
	KindNone Kind = iota
	KindScore
	KindPart
	KindMeasure
	KindNote
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindScore:
		return "score"
	case KindPart:
		return "part"
	case KindMeasure:
		return "measure"
	case KindNote:
		return "note"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// maxDepth bounds upward walks; a real chain is at most five levels deep.
const maxDepth = 64

// UnknownIndex is the Index of the measure that collects segments outside
// every visible measure column.
const UnknownIndex = -1

// Identifier is one link of a parent chain from a note up to the root.
type Identifier struct {
	Kind   Kind
	Index  int
	ID     string
	Parent *Identifier
}

var root = &Identifier{Kind: KindNone}

// Root returns the shared sentinel that ends every chain.
func Root() *Identifier { return root }

// Child returns a new identifier below id.
func (id *Identifier) Child(kind Kind, index int) *Identifier {
	return &Identifier{Kind: kind, Index: index, Parent: id}
}

// WithID returns a copy of id carrying a display id.
func (id *Identifier) WithID(s string) *Identifier {
	cp := *id
	cp.ID = s
	return &cp
}

// Nearest returns the closest identifier of the given kind, starting at id
// itself, or nil when the chain ends first. The walk stops at the None
// sentinel, a nil parent, a self-parented node, or after maxDepth steps.
func (id *Identifier) Nearest(kind Kind) *Identifier {
	cur := id
	for depth := 0; cur != nil && depth < maxDepth; depth++ {
		if cur.Kind == kind {
			return cur
		}
		if cur.Kind == KindNone || cur.Parent == cur {
			return nil
		}
		cur = cur.Parent
	}
	return nil
}

// String renders the chain root first, e.g. "part[0]/measure[2]/note[1]".
func (id *Identifier) String() string {
	var labels []string
	cur := id
	for depth := 0; cur != nil && depth < maxDepth && cur.Kind != KindNone; depth++ {
		label := fmt.Sprintf("%s[%d]", cur.Kind, cur.Index)
		if cur.ID != "" {
			label = cur.ID
		}
		labels = append([]string{label}, labels...)
		if cur.Parent == cur {
			break
		}
		cur = cur.Parent
	}
	if len(labels) == 0 {
		return "root"
	}
	out := labels[0]
	for _, l := range labels[1:] {
		out += "/" + l
	}
	return out
}
