package game

// ScoreTable maps rows cleared by a single lock to the score awarded.
var ScoreTable = [5]int{0, 1, 5, 25, 125}

func ScoreFor(lines int) int {
	if lines <= 0 {
		return 0
	}
	if lines >= len(ScoreTable) {
		return ScoreTable[len(ScoreTable)-1]
	}
	return ScoreTable[lines]
}
