package report

import (
	"fmt"
	"sort"
	"strings"

	"ivr-report/models"

	"github.com/cespare/xxhash/v2"
)

// allToken stands in for an absent or empty selection.
const allToken = "all"

// Signature is the cache key for a query over a given set of files. It
// changes exactly when the contributing files, their coverage, the range or
// the selections change, so cached entries never need invalidating.
func Signature(q models.Query, files []models.FileRecord) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		iv, _ := f.EffectiveInterval()
		parts = append(parts, fmt.Sprintf("%s:%s-%s", f.ID, iv.From, iv.To))
	}
	sort.Strings(parts)

	return fmt.Sprintf("%s_%s__%016x__q:%s__a:%s",
		q.Range.From, q.Range.To,
		xxhash.Sum64String(strings.Join(parts, "|")),
		selectionHash(q.SelectedQueues),
		selectionHash(q.SelectedAgents),
	)
}

func selectionHash(values []string) string {
	if len(values) == 0 {
		return allToken
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(sorted, "\x1f")))
}
