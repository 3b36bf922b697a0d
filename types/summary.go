package types

import "time"

// StatusCounts aggregates attempt outcomes for one slice of the journal.
type StatusCounts struct {
	Deleted   int `json:"deleted"`
	Simulated int `json:"simulated"`
	Preserved int `json:"preserved"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Pending   int `json:"pending"`
}

func (c *StatusCounts) add(a Attempt) {
	switch a.Status {
	case StatusSucceeded:
		if a.Simulated {
			c.Simulated++
		} else {
			c.Deleted++
		}
	case StatusSkipped:
		c.Preserved++
	case StatusFailed:
		c.Failed++
	case StatusTimedOut:
		c.TimedOut++
	case StatusPending:
		c.Pending++
	}
}

// RunSummary is a pure projection over the journal. It is derived by
// aggregation, never separately mutated.
type RunSummary struct {
	AccountID string                        `json:"account_id"`
	StartedAt time.Time                     `json:"started_at"`
	EndedAt   time.Time                     `json:"ended_at"`
	Totals    StatusCounts                  `json:"totals"`
	ByType    map[ResourceType]StatusCounts `json:"by_type"`
	ByRegion  map[string]StatusCounts       `json:"by_region"`
}

// Summarize projects a set of attempts into per-type and per-region counts.
func Summarize(accountID string, attempts []Attempt) RunSummary {
	s := RunSummary{
		AccountID: accountID,
		ByType:    make(map[ResourceType]StatusCounts),
		ByRegion:  make(map[string]StatusCounts),
	}

	for _, a := range attempts {
		s.Totals.add(a)

		byType := s.ByType[a.Resource.Type]
		byType.add(a)
		s.ByType[a.Resource.Type] = byType

		region := a.Resource.Region
		if region == "" {
			region = "global"
		}
		byRegion := s.ByRegion[region]
		byRegion.add(a)
		s.ByRegion[region] = byRegion

		if s.StartedAt.IsZero() || (!a.StartedAt.IsZero() && a.StartedAt.Before(s.StartedAt)) {
			s.StartedAt = a.StartedAt
		}
		if a.EndedAt.After(s.EndedAt) {
			s.EndedAt = a.EndedAt
		}
	}

	return s
}

// Clean reports whether the run finished without failures or timeouts.
func (s RunSummary) Clean() bool {
	return s.Totals.Failed == 0 && s.Totals.TimedOut == 0 && s.Totals.Pending == 0
}
