package session

// DefaultMinLabels is the number of distinct ranked labels a window needs
// before it is scored.
const DefaultMinLabels = 4

// ScoreOpeningElements scores how well the accepted labels follow the
// canonical opening order.
func ScoreOpeningElements(elems OpeningElements, minLabels int) float64 {
	return ScoreLabels(elems.Labels(), minLabels)
}

// ScoreLabels returns the share of label pairs that appear in canonical
// order, which is one minus the normalised Kendall tau distance. Unranked
// labels and repeats are ignored. Fewer than minLabels distinct labels, or
// three or fewer, score zero.
func ScoreLabels(labels []Label, minLabels int) float64 {
	seen := make(map[Label]struct{}, len(labels))
	var ranks []int
	for _, l := range labels {
		r, ok := l.Rank()
		if !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		ranks = append(ranks, r)
	}
	n := len(ranks)
	if n < minLabels || n <= 3 {
		return 0
	}
	agree := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ranks[i] < ranks[j] {
				agree++
			}
		}
	}
	return float64(agree) / float64(n*(n-1)/2)
}
