package analytics

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCalculateStreak(t *testing.T) {
	A, N, X := Adherent, NotAdherent, NothingDue

	tests := []struct {
		name     string
		verdicts []DayVerdict
		want     Streak
	}{
		{"empty", nil, Streak{}},
		{"all adherent", []DayVerdict{A, A, A}, Streak{Current: 3, Longest: 3}},
		{"broken today", []DayVerdict{A, A, A, A, A, N}, Streak{Current: 0, Longest: 5}},
		{"nothing due skipped", []DayVerdict{A, A, X, A, X}, Streak{Current: 3, Longest: 3}},
		{"older run is longest", []DayVerdict{A, A, A, N, A}, Streak{Current: 1, Longest: 3}},
		{"only days without doses", []DayVerdict{X, X}, Streak{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStreak(tt.verdicts))
		})
	}
}

func TestVerdictOf(t *testing.T) {
	assert.Equal(t, NothingDue, VerdictOf(DayPoint{}))
	assert.Equal(t, Adherent, VerdictOf(DayPoint{Taken: 2, Total: 2}))
	assert.Equal(t, NotAdherent, VerdictOf(DayPoint{Taken: 1, Total: 2}))
}

// Current streak never exceeds the longest streak, and neither exceeds the number of
// adherent days
func TestProperty_StreakBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("current <= longest <= adherent days", prop.ForAll(
		func(raw []int) bool {
			verdicts := make([]DayVerdict, len(raw))
			adherent := 0
			for i, v := range raw {
				verdicts[i] = DayVerdict(v)
				if verdicts[i] == Adherent {
					adherent++
				}
			}
			s := CalculateStreak(verdicts)
			return s.Current >= 0 && s.Current <= s.Longest && s.Longest <= adherent
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
