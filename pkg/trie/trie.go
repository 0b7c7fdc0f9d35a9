// Package trie holds the product index: a concurrent prefix tree over
// normalized product names. One node per rune of the normalized name.
// Children live in per-node sync.Maps, so lookups never block and racing
// inserts along a shared prefix converge on a single node per rune via
// LoadOrStore.
package trie

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type node struct {
	children sync.Map
	complete atomic.Bool
	queries  atomic.Int64
}

type Index struct {
	root *node
	size atomic.Int64
}

func New() *Index {
	return &Index{root: &node{}}
}

// Normalize case-folds a product name and collapses runs of whitespace to
// single spaces. It is the canonical key for every index operation; callers
// may pass raw names and get identical behavior.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Insert adds the normalized name. Idempotent; safe under concurrent
// insertion of overlapping names.
func (ix *Index) Insert(name string) {
	name = Normalize(name)
	if name == "" {
		return
	}
	n := ix.root
	for _, r := range name {
		if child, ok := n.children.Load(r); ok {
			n = child.(*node)
			continue
		}
		// Fully construct before publishing; LoadOrStore keeps the first
		// creator when two inserts race on the same rune.
		actual, _ := n.children.LoadOrStore(r, &node{})
		n = actual.(*node)
	}
	if n.complete.CompareAndSwap(false, true) {
		ix.size.Add(1)
	}
}

// Contains reports whether exactly this normalized name was inserted and
// bumps its query counter on a hit.
func (ix *Index) Contains(name string) bool {
	n := ix.walk(Normalize(name))
	if n == nil || !n.complete.Load() {
		return false
	}
	n.queries.Add(1)
	return true
}

// Queries returns how many Contains hits the name has had.
func (ix *Index) Queries(name string) int64 {
	n := ix.walk(Normalize(name))
	if n == nil || !n.complete.Load() {
		return 0
	}
	return n.queries.Load()
}

// Len returns the number of distinct names inserted.
func (ix *Index) Len() int64 {
	return ix.size.Load()
}

// PrefixMatches returns up to limit complete names sharing the normalized
// prefix, in lexical order. Empty result, never an error, when nothing
// matches.
func (ix *Index) PrefixMatches(prefix string, limit int) []string {
	prefix = Normalize(prefix)
	out := []string{}
	if limit <= 0 {
		return out
	}
	n := ix.walk(prefix)
	if n == nil {
		return out
	}
	collect(n, prefix, limit, &out)
	return out
}

func (ix *Index) walk(key string) *node {
	n := ix.root
	for _, r := range key {
		child, ok := n.children.Load(r)
		if !ok {
			return nil
		}
		n = child.(*node)
	}
	return n
}

func collect(n *node, acc string, limit int, out *[]string) {
	if len(*out) >= limit {
		return
	}
	if n.complete.Load() {
		*out = append(*out, acc)
	}
	var runes []rune
	n.children.Range(func(k, _ any) bool {
		runes = append(runes, k.(rune))
		return true
	})
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	for _, r := range runes {
		if len(*out) >= limit {
			return
		}
		child, ok := n.children.Load(r)
		if !ok {
			continue
		}
		collect(child.(*node), acc+string(r), limit, out)
	}
}
