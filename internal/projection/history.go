package projection

import (
	"sort"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// History returns the logs dated on or after since, newest first. Logs with
// an unparseable date are dropped. A zero since keeps everything parseable.
func History(logs []model.DoseLog, since time.Time) []model.DoseLog {
	loc := since.Location()
	if since.IsZero() {
		loc = time.Local
	}

	type stamped struct {
		log model.DoseLog
		at  time.Time
	}
	kept := make([]stamped, 0, len(logs))
	for _, l := range logs {
		day, err := model.ParseDate(l.Date, loc)
		if err != nil || day.Before(since) {
			continue
		}
		at, err := model.CombineDateTime(l.Date, l.Time, loc)
		if err != nil {
			at = day
		}
		kept = append(kept, stamped{log: l, at: at})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].at.After(kept[j].at)
	})

	out := make([]model.DoseLog, len(kept))
	for i, k := range kept {
		out[i] = k.log
	}
	return out
}

// DailyCounts returns the number of logs on each of the days ending with
// now's date, oldest first.
func DailyCounts(logs []model.DoseLog, now time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}
	index := make(map[string]int, days)
	counts := make([]float64, days)
	for i := 0; i < days; i++ {
		index[model.DateString(now.AddDate(0, 0, i-days+1))] = i
	}
	for _, l := range logs {
		if i, ok := index[l.Date]; ok {
			counts[i]++
		}
	}
	return counts
}
