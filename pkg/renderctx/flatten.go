package renderctx

import (
	"sort"
)

// Separator joins nested path segments in flattened keys.
const Separator = "_"

// Flatten returns the flat rendering context. Sections are merged in a
// fixed order (session, component, paths, github, context, models,
// plan_mode, timestamp); a key produced by a later section replaces one
// produced earlier.
func (c *Context) Flatten() Map {
	m, _ := c.flatten()
	return m
}

// flatten also reports the keys that a later section overwrote.
func (c *Context) flatten() (Map, []string) {
	return merge(c.sources())
}

func merge(sources []source) (Map, []string) {
	out := make(Map)
	var collisions []string

	for _, src := range sources {
		for _, leaf := range Leaves(src.value) {
			if _, exists := out[leaf.Key]; exists {
				collisions = append(collisions, leaf.Key)
			}
			out[leaf.Key] = leaf.Value
		}
	}

	return out, collisions
}

// Leaf is one flattened key and its scalar value.
type Leaf struct {
	Key   string
	Value any
}

// Leaves flattens a nested map into its scalar leaves, joining the path of
// each leaf with Separator. Keys are visited in sorted order so the result
// is deterministic. Empty nested maps contribute nothing.
func Leaves(nested map[string]any) []Leaf {
	var leaves []Leaf
	walk("", nested, &leaves)
	return leaves
}

func walk(prefix string, node map[string]any, leaves *[]Leaf) {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + Separator + k
		}

		switch v := node[k].(type) {
		case tree:
			walk(path, v, leaves)
		case map[string]any:
			walk(path, v, leaves)
		default:
			*leaves = append(*leaves, Leaf{Key: path, Value: v})
		}
	}
}
