package domain

// levelThresholds holds the minimum owned-item count for each level.
// Level n (1-based) is reached at levelThresholds[n-1] items.
var levelThresholds = []int{1, 5, 10, 20, 35, 50, 75, 100, 150, 200}

// MaxLevel is the highest attainable level
var MaxLevel = len(levelThresholds)

// Level is the derived classification of an owner computed from their item count
type Level struct {
	TotalMints     int
	Level          int
	Experience     int
	NextLevelMints int
}

// CalculateLevel derives the level of an owner holding count items.
// The result is monotonic non-decreasing in count. A count of zero yields level 0,
// which callers treat as "no level row".
func CalculateLevel(count int) Level {
	if count < 0 {
		count = 0
	}

	level := 0
	for i, threshold := range levelThresholds {
		if count >= threshold {
			level = i + 1
		}
	}

	next := 0
	if level < MaxLevel {
		next = levelThresholds[level] - count
	}

	return Level{
		TotalMints:     count,
		Level:          level,
		Experience:     count,
		NextLevelMints: next,
	}
}
