package editor

import (
	"slices"

	"checklist-cli/internal/history"
)

type block struct {
	head history.ItemState
	run  []history.ItemState
}

// sortedByChecked returns states reordered so that unchecked top-level items come
// before checked ones and, inside each run, unchecked children come before checked
// ones. Both partitions are stable. Index is renumbered.
func sortedByChecked(states []history.ItemState) []history.ItemState {
	var blocks []block
	for _, s := range states {
		if s.IsChild && len(blocks) > 0 {
			blocks[len(blocks)-1].run = append(blocks[len(blocks)-1].run, s)
			continue
		}
		blocks = append(blocks, block{head: s})
	}
	slices.SortStableFunc(blocks, func(a, b block) int { return cmpChecked(a.head, b.head) })

	out := make([]history.ItemState, 0, len(states))
	for _, b := range blocks {
		out = append(out, b.head)
		run := slices.Clone(b.run)
		slices.SortStableFunc(run, cmpChecked)
		out = append(out, run...)
	}
	for i := range out {
		out[i].Index = i
	}
	return out
}

func cmpChecked(a, b history.ItemState) int {
	switch {
	case a.Checked == b.Checked:
		return 0
	case !a.Checked:
		return -1
	default:
		return 1
	}
}
