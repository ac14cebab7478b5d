package walk_test

import (
	"testing"

	"github.com/hexashader/hxlc/internal/walk"
	"github.com/stretchr/testify/assert"
)

type tnode struct {
	name     string
	children []*tnode
}

func tchildren(n *tnode) []*tnode { return n.children }

func TestTraverseOrder(t *testing.T) {
	leaf1 := &tnode{name: "leaf1"}
	leaf2 := &tnode{name: "leaf2"}
	root := &tnode{name: "root", children: []*tnode{leaf1, leaf2}}

	var visited []string
	walk.Traverse[*tnode, struct{}](root, tchildren,
		func(n *tnode, depth int, deferred bool, ctx *struct{}) walk.Behavior {
			visited = append(visited, n.name)
			return walk.Keep
		}, nil)

	assert.Equal(t, []string{"root", "leaf1", "leaf2"}, visited)
}

func TestTraverseDeferralDrainsAfterMainPass(t *testing.T) {
	a := &tnode{name: "a"}
	b := &tnode{name: "b"}
	root := &tnode{name: "root", children: []*tnode{a, b}}

	tries := map[string]int{}
	var order []string
	walk.Traverse[*tnode, int](root, tchildren,
		func(n *tnode, depth int, deferred bool, ctx *int) walk.Behavior {
			if n.name == "a" && tries["a"] == 0 {
				tries["a"]++
				return walk.Defer
			}
			order = append(order, n.name)
			return walk.Keep
		}, nil)

	// "a" is deferred past "root" and "b" despite being visited first.
	assert.Equal(t, []string{"root", "b", "a"}, order)
}

func TestTraverseSkipDoesNotDescend(t *testing.T) {
	child := &tnode{name: "child"}
	root := &tnode{name: "root", children: []*tnode{child}}

	var visited []string
	walk.Traverse[*tnode, struct{}](root, tchildren,
		func(n *tnode, depth int, deferred bool, ctx *struct{}) walk.Behavior {
			visited = append(visited, n.name)
			if n.name == "root" {
				return walk.Skip
			}
			return walk.Keep
		}, nil)

	assert.Equal(t, []string{"root"}, visited)
}
