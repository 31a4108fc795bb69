package config

import (
	"fmt"
	"strings"
)

// Change is one setting that differs between two configs.
type Change struct {
	Path string
	Old  any
	New  any
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %v -> %v", c.Path, c.Old, c.New)
}

// leafPaths are the explain paths that name a single setting rather than a
// section.
func leafPaths() []string {
	all := ExplainPaths()
	var leaves []string
	for _, p := range all {
		section := false
		for _, q := range all {
			if strings.HasPrefix(q, p+".") {
				section = true
				break
			}
		}
		if !section {
			leaves = append(leaves, p)
		}
	}
	return leaves
}

// Diff lists the settings whose values differ between a and b, sorted by path.
// The outline helper path is compared as configured, ignoring the environment.
func Diff(a, b *Config) []Change {
	if a == nil || b == nil {
		return nil
	}
	var changes []Change
	for _, p := range leafPaths() {
		var oldV, newV any
		if p == "outline.helper_path" {
			oldV, newV = a.Outline.HelperPath, b.Outline.HelperPath
		} else {
			get := explainPaths[p]
			oldV, newV = get(a), get(b)
		}
		if oldV != newV {
			changes = append(changes, Change{Path: p, Old: oldV, New: newV})
		}
	}
	return changes
}
