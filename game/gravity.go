package game

import "time"

// Gravity per level: milliseconds per row. A level is ten cleared lines.
var gravityByLevel = [10]time.Duration{
	1000 * time.Millisecond, // Level 0
	900 * time.Millisecond,
	800 * time.Millisecond,
	700 * time.Millisecond,
	600 * time.Millisecond,
	500 * time.Millisecond,
	400 * time.Millisecond,
	300 * time.Millisecond,
	200 * time.Millisecond,
	100 * time.Millisecond, // level 9
}

func Level(lines int) int {
	return lines / 10
}

func GravityByLevel(lv int) time.Duration {
	lv = max(lv, 0)
	if lv >= len(gravityByLevel) {
		lv = len(gravityByLevel) - 1
	}
	return gravityByLevel[lv]
}

// GravityInterval is the delay between two gravity steps after lines cleared
// lines.
func GravityInterval(lines int) time.Duration {
	return GravityByLevel(Level(lines))
}
