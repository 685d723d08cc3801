package repository

import (
	"ivr-report/models"
)

// OverlapsFor compares a candidate against the stored records. Records
// without a date and the candidate itself are skipped. A conflict is an
// overlap whose files share at least one agent.
func OverlapsFor(candidate models.FileRecord, existing []models.FileRecord) (overlaps, conflicts []models.Overlap) {
	c, ok := candidate.EffectiveInterval()
	if !ok {
		return nil, nil
	}

	candidateAgents := candidate.Agents()

	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		e, ok := other.EffectiveInterval()
		if !ok || !c.Intersects(e) {
			continue
		}

		o := models.Overlap{
			FileID:       other.ID,
			FileName:     other.Name,
			Interval:     e,
			Kind:         classify(c, e),
			SharedAgents: intersectSorted(candidateAgents, other.Agents()),
		}
		overlaps = append(overlaps, o)
		if o.IsConflict() {
			conflicts = append(conflicts, o)
		}
	}
	return overlaps, conflicts
}

func classify(candidate, existing models.DateRange) models.OverlapKind {
	switch {
	case candidate == existing:
		return models.OverlapIdentical
	case existing.Contains(candidate):
		return models.OverlapContained
	case candidate.Contains(existing):
		return models.OverlapContains
	default:
		return models.OverlapPartial
	}
}

// intersectSorted merges two sorted, distinct lists.
func intersectSorted(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
