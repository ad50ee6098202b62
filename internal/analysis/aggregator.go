package analysis

import (
	"sort"

	"github.com/montanaflynn/stats"

	"inspectdash/domain/inspection"
)

// OwnerCount is one bar of the pending ranking
type OwnerCount struct {
	Owner string `json:"owner"`
	Count int    `json:"count"`
}

// StatusCount is one slice of the status breakdown
type StatusCount struct {
	Status inspection.Status `json:"status"`
	Count  int               `json:"count"`
}

// Summary holds the dashboard indicators for one filtered view
type Summary struct {
	Total           int           `json:"total"`
	Closed          int           `json:"closed"`
	Pending         int           `json:"pending"`
	CompliancePct   float64       `json:"compliance_pct"`
	PendingRanking  []OwnerCount  `json:"pending_ranking"`
	StatusBreakdown []StatusCount `json:"status_breakdown"`
}

// HasPendingOwners reports whether the ranking has anything to show
func (s Summary) HasPendingOwners() bool {
	return len(s.PendingRanking) > 0
}

// MaxRankingCount is the largest count in the ranking, 0 if empty
func (s Summary) MaxRankingCount() int {
	max := 0
	for _, oc := range s.PendingRanking {
		if oc.Count > max {
			max = oc.Count
		}
	}
	return max
}

// Summarize computes counts, compliance and the pending ranking of view
func Summarize(view *inspection.RecordSet) Summary {
	s := Summary{PendingRanking: []OwnerCount{}}
	if view == nil {
		s.StatusBreakdown = breakdown(0, 0)
		return s
	}

	s.Total = len(view.Observations)
	for _, o := range view.Observations {
		switch o.Status {
		case inspection.StatusCompleted:
			s.Closed++
		case inspection.StatusOverdue:
			s.Pending++
		}
	}
	s.CompliancePct = CompliancePct(s.Closed, s.Total)
	s.PendingRanking = PendingRanking(view)
	s.StatusBreakdown = breakdown(s.Closed, s.Pending)
	return s
}

// CompliancePct returns closed/total as a percentage rounded half-up to one
// decimal. It is 0 when total is 0.
func CompliancePct(closed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct, err := stats.Round(float64(closed)/float64(total)*100, 1)
	if err != nil {
		return 0
	}
	return pct
}

// PendingRanking counts pending rows per owner, skipping rows without an
// owner, sorted by count ascending then owner name.
func PendingRanking(view *inspection.RecordSet) []OwnerCount {
	counts := make(map[string]int)
	for _, o := range view.Observations {
		if o.IsPending() && o.HasOwner() {
			counts[o.Owner]++
		}
	}

	ranking := make([]OwnerCount, 0, len(counts))
	for owner, n := range counts {
		ranking = append(ranking, OwnerCount{Owner: owner, Count: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count < ranking[j].Count
		}
		return ranking[i].Owner < ranking[j].Owner
	})
	return ranking
}

func breakdown(closed, pending int) []StatusCount {
	return []StatusCount{
		{Status: inspection.StatusCompleted, Count: closed},
		{Status: inspection.StatusOverdue, Count: pending},
	}
}
