package tools

import (
	"github.com/mealmind/v1/internal/domain/conversation"
)

// MergeProposals collapses the proposals gathered during one reasoning run.
// Food-log proposals batch into a single multi-item proposal; for every other
// kind the first proposal found wins. Returns nil when nothing was proposed.
func MergeProposals(proposals []*Proposal) *Proposal {
	var items []conversation.FoodLogItem
	var excluded []string
	var firstOther *Proposal

	for _, p := range proposals {
		if p == nil {
			continue
		}
		if p.Kind == conversation.ActionFoodLog {
			items = append(items, p.Items...)
			excluded = append(excluded, p.Excluded...)
			continue
		}
		if firstOther == nil {
			firstOther = p
		}
	}

	if len(items) > 0 {
		return &Proposal{
			Kind:     conversation.ActionFoodLog,
			Summary:  summarizeFoodLog(items),
			Items:    items,
			Excluded: excluded,
		}
	}
	return firstOther
}
