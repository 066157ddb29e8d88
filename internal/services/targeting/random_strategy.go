package targeting

import (
	"github.com/mcoot/battleship/internal/dependencies/random"
	"github.com/mcoot/battleship/internal/model"
)

// RandomStrategy picks uniformly among untested cells
type RandomStrategy struct {
	random random.Random
}

var _ Strategy = (*RandomStrategy)(nil)

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseTarget picks a random untested cell on the board
func (s *RandomStrategy) ChooseTarget(board *model.Board) (model.Position, bool) {
	untested := board.UntestedCells()
	if len(untested) == 0 {
		return model.Position{}, false
	}
	return untested[s.random.Intn(len(untested))], true
}
