package model

// AttackResult classifies the outcome of a single shot
type AttackResult string

const (
	AttackMiss AttackResult = "miss"
	AttackHit  AttackResult = "hit"
	AttackSunk AttackResult = "sunk"
)

// AttackOutcome is everything the engine decided while resolving a shot
type AttackOutcome struct {
	GameID      GameID
	Position    Position
	Attacker    PlayerID
	Result      AttackResult
	CurrentTurn PlayerID // Holder of the turn after the shot
	TurnChanged bool
	SunkShip    *Ship // Set when Result is AttackSunk
	Finished    bool
	Winner      PlayerID
}

// FleetResult reports the state of a game after a fleet is accepted
type FleetResult struct {
	Game    *Game
	Started bool      // True once both fleets are in and the game moved to in_progress
	Fleets  [2][]Ship // Indexed like Game.Players, populated only when Started
}

// DisconnectOutcome describes what a departing player did to their game
type DisconnectOutcome struct {
	GameID    GameID
	Forfeited bool     // In-progress game awarded to the remaining player
	Abandoned bool     // Placing game discarded without a winner
	Winner    PlayerID // Set when Forfeited
	Remaining PlayerID // The opponent still connected
}
