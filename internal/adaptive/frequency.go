package adaptive

// Cadence bounds and thresholds.
const (
	minDaysPerWeek = 2
	maxDaysPerWeek = 6

	lowCompletionRate  = 0.7
	highCompletionRate = 0.9
	highFeedback       = 3.5
)

var baseDaysPerWeek = map[Preference]int{ //nolint:gochecknoglobals // lookup table
	PreferenceDaily:        6,
	PreferenceThreePerWeek: 3,
	PreferenceFlexible:     4,
}

var restDayMessages = map[int]string{ //nolint:gochecknoglobals // lookup table
	2: "Two focused sessions a week. Use the rest days for walks and mobility.",
	3: "Train every other day and take full rest days in between.",
	4: "Four days on, three days off. Keep at least one rest day between your hardest sessions.",
	5: "Five sessions a week. Schedule two rest days and sleep well.",
	6: "Six training days. Take one full rest day and keep one session light.",
}

// OptimizeFrequency recommends a weekly cadence from the stated preference and recent performance.
//
// Unknown preferences fall back to PreferenceFlexible.
func OptimizeFrequency(pref Preference, perf Performance) FrequencyRecommendation {
	base, ok := baseDaysPerWeek[pref]
	if !ok {
		base = baseDaysPerWeek[PreferenceFlexible]
	}

	days := base
	switch {
	case perf.CompletionRate < lowCompletionRate:
		days = max(minDaysPerWeek, base-1)
	case perf.CompletionRate > highCompletionRate && perf.AverageFeedback > highFeedback:
		days = min(maxDaysPerWeek, base+1)
	}

	msg, ok := restDayMessages[days]
	if !ok {
		msg = restDayMessages[4]
	}

	return FrequencyRecommendation{DaysPerWeek: days, RestDayRecommendation: msg}
}
