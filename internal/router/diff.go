package router

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// describeDiff renders the character-level change between two stack
// descriptions as "kept[-removed][+added]".
func describeDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+" + d.Text + "]")
		}
	}
	return b.String()
}
