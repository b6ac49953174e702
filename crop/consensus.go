package crop

// ResolveConsensus picks the most frequent crop size among candidates.
//
// When several sizes share the highest count, the one that appears first in
// candidates wins, so the same input order always yields the same decision.
// An empty slice returns a *NoConsensusError.
func ResolveConsensus(candidates []Candidate) (*Decision, error) {
	if len(candidates) == 0 {
		return nil, &NoConsensusError{}
	}

	counts := make(map[Candidate]int, len(candidates))
	order := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	// Strict comparison keeps the earliest size on ties
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}

	return &Decision{
		Width:      best.Width,
		Height:     best.Height,
		Votes:      counts[best],
		Candidates: len(candidates),
		Samples:    len(candidates),
	}, nil
}
