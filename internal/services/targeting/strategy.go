package targeting

import "github.com/mcoot/battleship/internal/model"

// Strategy chooses where to fire on an opponent's board
type Strategy interface {
	// ChooseTarget selects an untested cell; ok is false when none remain
	ChooseTarget(board *model.Board) (pos model.Position, ok bool)
}
