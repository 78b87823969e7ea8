package report

import (
	"github.com/elliotchance/orderedmap/v2"
)

// HierarchyNode aggregates the occurrences of a feature type at one position
// of the feature nesting tree.
type HierarchyNode struct {
	Name     string           `json:"name" yaml:"name"`
	Count    int              `json:"count" yaml:"count"`
	Children []*HierarchyNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type hierarchyBuilder struct {
	count    int
	children *orderedmap.OrderedMap[string, *hierarchyBuilder]
}

func newHierarchyBuilder() *hierarchyBuilder {
	return &hierarchyBuilder{children: orderedmap.NewOrderedMap[string, *hierarchyBuilder]()}
}

// BuildHierarchy folds hierarchy paths into a tree. Each path counts one
// occurrence of its innermost feature under its ancestors. Siblings keep the
// order in which they were first seen.
func BuildHierarchy(paths [][]string) []*HierarchyNode {
	root := newHierarchyBuilder()
	for _, path := range paths {
		node := root
		for _, name := range path {
			child, ok := node.children.Get(name)
			if !ok {
				child = newHierarchyBuilder()
				node.children.Set(name, child)
			}
			node = child
		}
		if node != root {
			node.count++
		}
	}
	return root.nodes()
}

func (b *hierarchyBuilder) nodes() []*HierarchyNode {
	if b.children.Len() == 0 {
		return nil
	}
	nodes := make([]*HierarchyNode, 0, b.children.Len())
	for el := b.children.Front(); el != nil; el = el.Next() {
		nodes = append(nodes, &HierarchyNode{
			Name:     el.Key,
			Count:    el.Value.count,
			Children: el.Value.nodes(),
		})
	}
	return nodes
}
