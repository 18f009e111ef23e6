package search

import (
	"github.com/TuftsBCB/motif"
)

// bst is an unbalanced binary search tree of hits ordered by motif.Hit.Less.
// It is used to keep the best N hits seen so far.
type bst struct {
	root *node
	size int
}

type node struct {
	motif.Hit
	left, right *node
}

func (tree *bst) insert(hit motif.Hit) {
	tree.size++
	n := &node{Hit: hit}
	if tree.root == nil {
		tree.root = n
		return
	}
	cur := tree.root
	for {
		if hit.Less(cur.Hit) {
			if cur.left == nil {
				cur.left = n
				return
			}
			cur = cur.left
		} else {
			if cur.right == nil {
				cur.right = n
				return
			}
			cur = cur.right
		}
	}
}

// max returns the worst hit in the tree, or nil if the tree is empty.
func (tree *bst) max() *node {
	if tree.root == nil {
		return nil
	}
	cur := tree.root
	for cur.right != nil {
		cur = cur.right
	}
	return cur
}

func (tree *bst) deleteMax() {
	if tree.root == nil {
		return
	}
	tree.size--
	var parent *node
	cur := tree.root
	for cur.right != nil {
		parent, cur = cur, cur.right
	}
	if parent == nil {
		tree.root = cur.left
	} else {
		parent.right = cur.left
	}
}

func (n *node) inorder(f func(*node)) {
	if n == nil {
		return
	}
	n.left.inorder(f)
	f(n)
	n.right.inorder(f)
}

// hits returns every hit in the tree from best to worst.
func (tree *bst) hits() []motif.Hit {
	hits := make([]motif.Hit, 0, tree.size)
	tree.root.inorder(func(n *node) {
		hits = append(hits, n.Hit)
	})
	return hits
}
