package pivot

import (
	"sort"
	"strings"

	"tally/internal/core"
)

// Node is one category of the reporting forest with its children resolved.
type Node struct {
	Category core.Category `json:"category"`
	Children []*Node       `json:"children"`
}

// Tree is the category forest plus the lookup indexes used to resolve a
// transaction's raw category reference.
//
// The forest is built as an arena keyed by category id with children derived
// from a single parent-id grouping pass, so traversal order is deterministic.
// The parent graph must be acyclic; the builder does not detect cycles.
type Tree struct {
	Roots []*Node

	byID   map[string]*Node
	byName map[string]string // normalized name -> category id
}

// RefKind tags how a transaction's raw category value resolved.
type RefKind int

const (
	RefUnassigned RefKind = iota
	RefByID
	RefByName
)

// CategoryRef is a transaction's category reference resolved once per
// computation pass, so the id-vs-name resolution rule is applied identically
// by every aggregator.
type CategoryRef struct {
	Kind RefKind
	ID   string
}

// BuildTree turns the flat category set into an ordered forest. Siblings sort
// by SortOrder ascending with nil last, then by name and id to keep the order
// total. A category whose parent id resolves to nothing is treated as a root.
func BuildTree(categories []core.Category) *Tree {
	t := &Tree{
		byID:   make(map[string]*Node, len(categories)),
		byName: make(map[string]string, len(categories)),
	}

	for _, c := range categories {
		t.byID[c.ID] = &Node{Category: c}
	}
	// First name wins on duplicates so resolution stays deterministic.
	for _, c := range categories {
		key := normalizeName(c.Name)
		if key == "" {
			continue
		}
		if _, exists := t.byName[key]; !exists {
			t.byName[key] = c.ID
		}
	}

	children := make(map[string][]*Node)
	for _, c := range categories {
		node := t.byID[c.ID]
		if c.ParentID != nil {
			if parent, ok := t.byID[*c.ParentID]; ok {
				children[parent.Category.ID] = append(children[parent.Category.ID], node)
				continue
			}
			// Orphan: parent reference does not resolve, keep it visible as
			// a root instead of dropping it.
		}
		t.Roots = append(t.Roots, node)
	}

	for id, node := range t.byID {
		node.Children = children[id]
		sortSiblings(node.Children)
	}
	sortSiblings(t.Roots)

	return t
}

// ResolveRef resolves a transaction's raw category value against the tree:
// id match first, then case-insensitive trimmed name equality for legacy rows
// that stored a name instead of an id.
func (t *Tree) ResolveRef(raw string) CategoryRef {
	if raw == "" {
		return CategoryRef{Kind: RefUnassigned}
	}
	if _, ok := t.byID[raw]; ok {
		return CategoryRef{Kind: RefByID, ID: raw}
	}
	if id, ok := t.byName[normalizeName(raw)]; ok {
		return CategoryRef{Kind: RefByName, ID: id}
	}
	return CategoryRef{Kind: RefUnassigned}
}

// Walk visits every node of the forest post-order: all descendants before
// their ancestor.
func (t *Tree) Walk(visit func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			walk(c)
		}
		visit(n)
	}
	for _, r := range t.Roots {
		walk(r)
	}
}

// Size returns the number of categories in the forest.
func (t *Tree) Size() int {
	return len(t.byID)
}

func sortSiblings(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Category, nodes[j].Category
		switch {
		case a.SortOrder != nil && b.SortOrder != nil && *a.SortOrder != *b.SortOrder:
			return *a.SortOrder < *b.SortOrder
		case a.SortOrder != nil && b.SortOrder == nil:
			return true
		case a.SortOrder == nil && b.SortOrder != nil:
			return false
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
