package graph

// Branch is one disjunct of a Match. A branch either selects nodes carrying
// Label, or nodes with an outgoing RelType relationship to TargetID.
type Branch struct {
	Label    string
	RelType  string
	TargetID int64
}

// Linked reports whether the branch selects by relationship.
func (b Branch) Linked() bool { return b.RelType != "" }

// Match composes a union of node selections. Stores compile it into a single
// query with every label, type and id bound as a parameter, and return each
// matching node once, in id order.
type Match struct {
	branches []Branch
}

// NewMatch returns an empty match.
func NewMatch() *Match { return &Match{} }

// Labelled adds a branch selecting nodes with label.
func (m *Match) Labelled(label string) *Match {
	m.branches = append(m.branches, Branch{Label: label})
	return m
}

// LinkedTo adds a branch selecting nodes with an outgoing relType
// relationship ending at targetID.
func (m *Match) LinkedTo(relType string, targetID int64) *Match {
	m.branches = append(m.branches, Branch{RelType: relType, TargetID: targetID})
	return m
}

// Branches returns the disjuncts in insertion order.
func (m *Match) Branches() []Branch { return m.branches }

// Empty reports whether the match has no branches. An empty match selects
// nothing.
func (m *Match) Empty() bool { return len(m.branches) == 0 }
