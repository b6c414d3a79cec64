package domain

import (
	"fmt"
	"strings"
)

// RootID is the identifier of the tree root. Child IDs append the group
// label to the parent ID, e.g. "root", "root_0", "root_0_2".
const RootID = "root"

// Node is one cluster in the mindmap tree. Built by the tree builder,
// label/description filled in by the enricher, relationships by the
// relationship extractor. Not mutated after enrichment completes.
type Node struct {
	ID            string
	Depth         int
	Members       []int
	Children      []*Node
	Label         string
	Description   string
	Relationships []Relationship
}

// NewLeaf creates a leaf node holding the given member indices.
func NewLeaf(id string, depth int, members []int) (*Node, error) {
	if err := validateNodeShape(id, depth, members); err != nil {
		return nil, err
	}
	return &Node{ID: id, Depth: depth, Members: members}, nil
}

// NewInternal creates an internal node whose members must equal the
// disjoint union of its children's members.
func NewInternal(id string, depth int, members []int, children []*Node) (*Node, error) {
	if err := validateNodeShape(id, depth, members); err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("internal node %s has no children: %w", id, ErrTreeInvariant)
	}
	seen := make(map[int]bool, len(members))
	for _, c := range children {
		if c.Depth != depth+1 {
			return nil, fmt.Errorf("child %s depth %d under parent depth %d: %w",
				c.ID, c.Depth, depth, ErrTreeInvariant)
		}
		for _, m := range c.Members {
			if seen[m] {
				return nil, fmt.Errorf("member %d appears in multiple children of %s: %w",
					m, id, ErrTreeInvariant)
			}
			seen[m] = true
		}
	}
	if len(seen) != len(members) {
		return nil, fmt.Errorf("node %s has %d members but children cover %d: %w",
			id, len(members), len(seen), ErrTreeInvariant)
	}
	for _, m := range members {
		if !seen[m] {
			return nil, fmt.Errorf("member %d of %s missing from children: %w", m, id, ErrTreeInvariant)
		}
	}
	return &Node{ID: id, Depth: depth, Members: members, Children: children}, nil
}

func validateNodeShape(id string, depth int, members []int) error {
	if id == "" {
		return fmt.Errorf("empty node id: %w", ErrTreeInvariant)
	}
	if depth < 0 {
		return fmt.Errorf("negative depth for %s: %w", id, ErrTreeInvariant)
	}
	if len(members) == 0 {
		return fmt.Errorf("node %s has no members: %w", id, ErrTreeInvariant)
	}
	return nil
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// ChildID derives a child identifier from the parent ID and group label.
func ChildID(parentID string, group int) string {
	return fmt.Sprintf("%s_%d", parentID, group)
}

// Walk visits the node and all descendants depth-first, children in order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Validate checks the structural invariants of the whole subtree:
// depth chaining, member partitioning, and (post-enrichment) non-empty
// labels on every node.
func (n *Node) Validate(requireLabels bool) error {
	if requireLabels && strings.TrimSpace(n.Label) == "" {
		return fmt.Errorf("node %s has empty label: %w", n.ID, ErrTreeInvariant)
	}
	if n.IsLeaf() {
		return nil
	}
	covered := make(map[int]bool, len(n.Members))
	for _, c := range n.Children {
		if c.Depth != n.Depth+1 {
			return fmt.Errorf("child %s depth %d under parent depth %d: %w",
				c.ID, c.Depth, n.Depth, ErrTreeInvariant)
		}
		for _, m := range c.Members {
			if covered[m] {
				return fmt.Errorf("member %d duplicated under %s: %w", m, n.ID, ErrTreeInvariant)
			}
			covered[m] = true
		}
		if err := c.Validate(requireLabels); err != nil {
			return err
		}
	}
	if len(covered) != len(n.Members) {
		return fmt.Errorf("node %s members not partitioned by children: %w", n.ID, ErrTreeInvariant)
	}
	for _, m := range n.Members {
		if !covered[m] {
			return fmt.Errorf("member %d of %s missing from children: %w", m, n.ID, ErrTreeInvariant)
		}
	}
	return nil
}

// Outline renders the labeled subtree as an indented label+description
// listing, depth-first. Nodes without a label are skipped. Used as the
// content for the whole-tree naming call.
func (n *Node) Outline() string {
	var b strings.Builder
	n.outlineInto(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (n *Node) outlineInto(b *strings.Builder, indent int) {
	if strings.TrimSpace(n.Label) != "" {
		b.WriteString(strings.Repeat("  ", indent))
		b.WriteString("- ")
		b.WriteString(n.Label)
		if strings.TrimSpace(n.Description) != "" {
			b.WriteString(": ")
			b.WriteString(n.Description)
		}
		b.WriteString("\n")
	}
	for _, c := range n.Children {
		c.outlineInto(b, indent+1)
	}
}
