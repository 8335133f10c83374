package adaptive

import (
	"math/rand/v2"
)

// MotivationTier buckets users by the number of workouts they have completed.
type MotivationTier string

const (
	MotivationNewbie    MotivationTier = "newbie"
	MotivationBuilding  MotivationTier = "building"
	MotivationStrong    MotivationTier = "strong"
	MotivationLegendary MotivationTier = "legendary"
)

// IntN is a source of uniform random integers in [0, n). [*rand.Rand] implements it.
type IntN interface {
	IntN(n int) int
}

var motivationMessages = map[MotivationTier][]string{ //nolint:gochecknoglobals // message catalogue
	MotivationNewbie: {
		"Every journey starts with a single step. You've taken yours!",
		"Showing up is the hardest part, and you're doing it.",
		"Welcome aboard! Small steps today build big results tomorrow.",
	},
	MotivationBuilding: {
		"You're building a real habit. Keep the momentum going!",
		"Consistency is paying off. Your body is adapting.",
		"Look at you go! The routine is starting to stick.",
	},
	MotivationStrong: {
		"You're getting seriously strong. Others could learn from your dedication.",
		"Dozens of workouts in the bag. This is who you are now.",
		"Your consistency is impressive. Keep raising the bar!",
	},
	MotivationLegendary: {
		"Legendary status! Your dedication is truly inspiring.",
		"Fifty workouts and counting. You're in a league of your own.",
		"Champions are made of days like this. Keep writing your legend.",
	},
}

// MotivationTierFor returns the bucket for totalWorkouts. Each boundary belongs to the higher bucket.
func MotivationTierFor(totalWorkouts int) MotivationTier {
	switch {
	case totalWorkouts < 5: //nolint:mnd // first week or two
		return MotivationNewbie
	case totalWorkouts < 20: //nolint:mnd // habit forming
		return MotivationBuilding
	case totalWorkouts < 50: //nolint:mnd // established
		return MotivationStrong
	default:
		return MotivationLegendary
	}
}

// Messages returns the candidate messages of a bucket.
func Messages(tier MotivationTier) []string {
	return append([]string(nil), motivationMessages[tier]...)
}

// PickMessage draws one of the encouragement messages of the bucket matching totalWorkouts.
//
// A nil rng uses the global random source.
func PickMessage(totalWorkouts int, rng IntN) string {
	candidates := motivationMessages[MotivationTierFor(totalWorkouts)]
	var i int
	if rng == nil {
		i = rand.IntN(len(candidates)) //nolint:gosec // not security sensitive
	} else {
		i = rng.IntN(len(candidates))
	}
	return candidates[i]
}
