package recordsync

import "maisync/internal/records"

// annotateCredits tags newest first plays with the play count of the credit
// they belong to. A credit ends (reading newest first) with its TRACK 01 row,
// rows past the last TRACK 01 belong to a credit that is only partially on
// the page and are dropped.
func annotateCredits(plays []records.PlayLogRecord, totalPlayCount int64) []records.PlayLogRecord {
	last := -1
	for i, play := range plays {
		if play.Track != nil && *play.Track == 1 {
			last = i
		}
	}
	if last < 0 {
		return nil
	}

	out := make([]records.PlayLogRecord, last+1)
	copy(out, plays[:last+1])

	var creditIdx int64
	for i := range out {
		count := max(totalPlayCount-creditIdx, 0)
		out[i].CreditPlayCount = &count
		if out[i].Track != nil && *out[i].Track == 1 {
			creditIdx++
		}
	}
	return out
}

// markFirstPlays flags the earliest play of every chart that had no
// achievement in the score table and no stored play before the cycle began.
// Only plays showing the new record badge qualify.
func markFirstPlays(
	plays []records.PlayLogRecord,
	scored map[records.ChartKey]struct{},
	played map[records.ChartKey]struct{},
) int {
	marked := 0
	seen := map[records.ChartKey]struct{}{}
	// plays are listed newest first
	for i := len(plays) - 1; i >= 0; i-- {
		key, ok := plays[i].ChartKey()
		if !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := scored[key]; ok {
			continue
		}
		if _, ok := played[key]; ok {
			continue
		}
		if !plays[i].AchievementNewRecord {
			continue
		}
		plays[i].FirstPlay = true
		marked++
	}
	return marked
}
