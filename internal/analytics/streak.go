package analytics

// DayVerdict classifies one calendar day for streak purposes
type DayVerdict int

const (
	// NothingDue days neither extend nor break a streak
	NothingDue DayVerdict = iota
	Adherent
	NotAdherent
)

// Streak holds the current and longest runs of fully adherent days
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// VerdictOf judges a day: adherent only when every due dose was taken
func VerdictOf(point DayPoint) DayVerdict {
	switch {
	case point.Total == 0:
		return NothingDue
	case point.Taken == point.Total:
		return Adherent
	default:
		return NotAdherent
	}
}

// Verdicts maps an ascending day series to verdicts
func Verdicts(series []DayPoint) []DayVerdict {
	out := make([]DayVerdict, len(series))
	for i, point := range series {
		out[i] = VerdictOf(point)
	}
	return out
}

// CalculateStreak computes streaks over chronologically ascending verdicts.
// Longest is the maximum run seen in a forward pass; current walks back from the
// most recent day and stops at the first non-adherent day. NothingDue days are skipped
// by both passes.
func CalculateStreak(verdicts []DayVerdict) Streak {
	var s Streak

	run := 0
	for _, v := range verdicts {
		switch v {
		case Adherent:
			run++
			if run > s.Longest {
				s.Longest = run
			}
		case NotAdherent:
			run = 0
		}
	}

	for i := len(verdicts) - 1; i >= 0; i-- {
		if verdicts[i] == NothingDue {
			continue
		}
		if verdicts[i] != Adherent {
			break
		}
		s.Current++
	}

	return s
}
