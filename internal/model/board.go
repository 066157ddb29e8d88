package model

// DefaultBoardSize is the edge length of a standard battleship grid
const DefaultBoardSize = 10

// Position identifies a cell on the board
type Position struct {
	X int // 0-indexed column
	Y int // 0-indexed row
}

// Orientation is the direction a ship extends from its origin
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal" // Extends along X
	OrientationVertical   Orientation = "vertical"   // Extends along Y
)

// IsValid returns true for a recognised orientation
func (o Orientation) IsValid() bool {
	return o == OrientationHorizontal || o == OrientationVertical
}

// ShipType is a semantic size tag
type ShipType string

const (
	ShipSmall  ShipType = "small"
	ShipMedium ShipType = "medium"
	ShipLarge  ShipType = "large"
	ShipHuge   ShipType = "huge"
)

// Ship is a single vessel in a fleet
type Ship struct {
	Origin      Position
	Orientation Orientation
	Length      int
	Type        ShipType
}

// Cells returns every position the ship occupies
func (s Ship) Cells() []Position {
	cells := make([]Position, 0, s.Length)
	for i := 0; i < s.Length; i++ {
		if s.Orientation == OrientationHorizontal {
			cells = append(cells, Position{X: s.Origin.X + i, Y: s.Origin.Y})
		} else {
			cells = append(cells, Position{X: s.Origin.X, Y: s.Origin.Y + i})
		}
	}
	return cells
}

// End returns the last cell the ship occupies
func (s Ship) End() Position {
	if s.Orientation == OrientationHorizontal {
		return Position{X: s.Origin.X + s.Length - 1, Y: s.Origin.Y}
	}
	return Position{X: s.Origin.X, Y: s.Origin.Y + s.Length - 1}
}

// Contains returns true if the ship occupies the position
func (s Ship) Contains(pos Position) bool {
	if s.Orientation == OrientationHorizontal {
		return pos.Y == s.Origin.Y && pos.X >= s.Origin.X && pos.X < s.Origin.X+s.Length
	}
	return pos.X == s.Origin.X && pos.Y >= s.Origin.Y && pos.Y < s.Origin.Y+s.Length
}

// CellState records what is known about a cell after shots
type CellState int

const (
	CellUntested CellState = iota
	CellHit
	CellMiss
)

// Board is one player's grid within a game, tracking shots against that player's fleet
type Board struct {
	GameID      GameID
	PlayerID    PlayerID
	Size        int
	Cells       [][]CellState // Row-major: Cells[y][x]
	Ships       []Ship
	FleetPlaced bool
}

// NewBoard creates an untested board of the given size with no fleet
func NewBoard(gameID GameID, playerID PlayerID, size int) *Board {
	cells := make([][]CellState, size)
	for i := range cells {
		cells[i] = make([]CellState, size)
	}
	return &Board{
		GameID:   gameID,
		PlayerID: playerID,
		Size:     size,
		Cells:    cells,
	}
}

// IsValidPosition returns true if the position is within bounds
func (b *Board) IsValidPosition(pos Position) bool {
	return pos.X >= 0 && pos.X < b.Size && pos.Y >= 0 && pos.Y < b.Size
}

// Get returns the state of a cell, or CellUntested when out of bounds
func (b *Board) Get(pos Position) CellState {
	if !b.IsValidPosition(pos) {
		return CellUntested
	}
	return b.Cells[pos.Y][pos.X]
}

// Set records the state of a cell
func (b *Board) Set(pos Position, state CellState) {
	if b.IsValidPosition(pos) {
		b.Cells[pos.Y][pos.X] = state
	}
}

// ShipAt returns the index of the ship covering the position, or -1
func (b *Board) ShipAt(pos Position) int {
	for i, ship := range b.Ships {
		if ship.Contains(pos) {
			return i
		}
	}
	return -1
}

// IsSunk returns true if every cell of the ship has been hit
func (b *Board) IsSunk(ship Ship) bool {
	for _, cell := range ship.Cells() {
		if b.Get(cell) != CellHit {
			return false
		}
	}
	return true
}

// AllSunk returns true if the fleet is placed and every ship is sunk
func (b *Board) AllSunk() bool {
	if !b.FleetPlaced || len(b.Ships) == 0 {
		return false
	}
	for _, ship := range b.Ships {
		if !b.IsSunk(ship) {
			return false
		}
	}
	return true
}

// UntestedCells returns every cell not yet shot at, in row-major order
func (b *Board) UntestedCells() []Position {
	var cells []Position
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			if b.Cells[y][x] == CellUntested {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}
