package tasks

// Delta is the result of reconciling a snapshot track list against a live
// track list. Additions are identifiers present in the snapshot but missing
// live; Deletions are identifiers present live but absent from the snapshot.
// Identifiers in both are untouched, so provider-side metadata on surviving
// entries (added-at dates in particular) is never rewritten.
type Delta struct {
	Additions []string
	Deletions []string
}

// Empty reports whether the delta would cause no mutation.
func (d Delta) Empty() bool {
	return len(d.Additions) == 0 && len(d.Deletions) == 0
}

// Reconcile computes the additive and subtractive change set that makes the
// live track set equal to the snapshot track set.
//
// Membership is a pure set property: duplicate identifiers within either
// input count as a single logical presence, and input order is irrelevant to
// the outcome. Output order follows first appearance in the respective input
// so results are deterministic.
func Reconcile(snapshotIDs, liveIDs []string) Delta {
	inSnapshot := toSet(snapshotIDs)
	inLive := toSet(liveIDs)

	var delta Delta

	seen := make(map[string]bool, len(snapshotIDs))
	for _, id := range snapshotIDs {
		if !inLive[id] && !seen[id] {
			delta.Additions = append(delta.Additions, id)
			seen[id] = true
		}
	}

	seen = make(map[string]bool, len(liveIDs))
	for _, id := range liveIDs {
		if !inSnapshot[id] && !seen[id] {
			delta.Deletions = append(delta.Deletions, id)
			seen[id] = true
		}
	}

	return delta
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
