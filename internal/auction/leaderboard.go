package auction

import (
	"sort"

	"github.com/samber/lo"

	"github.com/streamstack/giftauction/internal/events"
)

// ranked returns participants ordered by total value descending. The sort is
// stable over the first-donation insertion order, which is the tie-break: the
// earlier donor ranks higher on equal totals.
func ranked(participants []*Participant) []*Participant {
	out := make([]*Participant, len(participants))
	copy(out, participants)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue > out[j].TotalValue
	})
	return out
}

// winnerOf computes the winner of the given ledger. The second return value is
// false when nobody donated; that is the no-winner outcome, not an error.
// The computation is read-only and may be repeated at any time.
func winnerOf(participants []*Participant) (Winner, bool) {
	if len(participants) == 0 {
		return Winner{}, false
	}
	top := ranked(participants)[0]
	return Winner{
		DonorID:     top.DonorID,
		DisplayName: top.DisplayName,
		TotalValue:  top.TotalValue,
	}, true
}

// leaderboardViews converts the ledger into ranked wire views.
func leaderboardViews(participants []*Participant) []events.ParticipantView {
	return lo.Map(ranked(participants), func(p *Participant, i int) events.ParticipantView {
		return events.ParticipantView{
			DonorID:     p.DonorID,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			TotalValue:  p.TotalValue,
			Rank:        i + 1,
		}
	})
}
