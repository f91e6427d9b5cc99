package arena

import "math"

const eloK = 32

// EloDelta returns the rating points the winner gains (and the loser loses)
// for a duel between the given ratings. Always at least 1 so a win is never
// free of consequence.
func EloDelta(winnerRating, loserRating int) int {
	expected := 1 / (1 + math.Pow(10, float64(loserRating-winnerRating)/400))
	delta := int(math.Round(eloK * (1 - expected)))
	if delta < 1 {
		return 1
	}
	return delta
}
