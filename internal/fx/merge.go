package fx

import "sort"

// BestByCurrency collapses rates from several sources keeping the newest
// FetchedAt per currency. For equal timestamps, later input wins. Output is
// sorted by currency code for stable rendering.
func BestByCurrency(rates []Rate) []Rate {
	best := make(map[string]Rate, len(rates))
	for _, r := range rates {
		if cur, ok := best[r.Currency]; ok {
			if r.FetchedAt.Before(cur.FetchedAt) {
				continue
			}
		}
		best[r.Currency] = r
	}
	out := make([]Rate, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
