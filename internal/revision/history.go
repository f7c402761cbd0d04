package revision

import "sort"

// HistoryView is the display grouping of resolved feedback: entries from the
// current round inline, older rounds collapsed behind a "show N previous
// revisions" toggle.
type HistoryView struct {
	Current  []Entry
	Previous []RoundGroup
}

type RoundGroup struct {
	Round   int
	Entries []Entry
}

// GroupHistory splits history by round. Previous rounds come newest first.
func GroupHistory(history []Entry, currentRound int) HistoryView {
	var view HistoryView
	byRound := make(map[int][]Entry)
	for _, e := range history {
		if e.RevisionRound == currentRound {
			view.Current = append(view.Current, e)
			continue
		}
		byRound[e.RevisionRound] = append(byRound[e.RevisionRound], e)
	}

	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rounds)))

	for _, r := range rounds {
		view.Previous = append(view.Previous, RoundGroup{Round: r, Entries: byRound[r]})
	}
	return view
}
