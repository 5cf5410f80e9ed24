package model

import "sort"

// rank orders kinds the way they are declared in an exported script:
// attributes, ports, class definitions, entities, relations.
func rank(e *Element) int {
	switch e.kind {
	case KindAttribute, KindLocation:
		return 0
	case KindPort:
		return 1
	case KindEntity:
		if e.ClassDef {
			return 2
		}
		return 3
	case KindRelation:
		return 4
	}
	return 5
}

func orderKey(e *Element) [][2]int {
	var key [][2]int
	for t := e; t.container != nil; t = t.container {
		key = append(key, [2]int{rank(t), t.Index()})
	}
	for i, j := 0, len(key)-1; i < j; i, j = i+1, j-1 {
		key[i], key[j] = key[j], key[i]
	}
	return key
}

func lessKey(a, b [][2]int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i][0] != b[i][0] {
			return a[i][0] < b[i][0]
		}
		if a[i][1] != b[i][1] {
			return a[i][1] < b[i][1]
		}
	}
	return len(a) < len(b)
}

// SortContained returns objs deduplicated and in canonical declaration
// order, so that serializing them in sequence never references an element
// that has not been declared yet.
func SortContained(objs []*Element) []*Element {
	seen := make(map[*Element]bool, len(objs))
	out := make([]*Element, 0, len(objs))
	for _, o := range objs {
		if o == nil || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	keys := make(map[*Element][][2]int, len(out))
	for _, o := range out {
		keys[o] = orderKey(o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessKey(keys[out[i]], keys[out[j]])
	})
	return out
}

// PruneDescendants drops every element that lies below another element of
// objs. Order is preserved.
func PruneDescendants(objs []*Element) []*Element {
	var out []*Element
	for _, o := range objs {
		covered := false
		for _, p := range objs {
			if p != o && p.DeepContains(o) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, o)
		}
	}
	return out
}
