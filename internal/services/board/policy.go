package board

import (
	"fmt"

	"github.com/mcoot/battleship/internal/model"
)

// FleetPolicy decides which fleet compositions are accepted
type FleetPolicy string

const (
	// FleetPolicyAny accepts any structurally valid, non-overlapping fleet
	FleetPolicyAny FleetPolicy = "any"
	// FleetPolicyClassic requires the conventional ten-ship fleet
	FleetPolicyClassic FleetPolicy = "classic"
)

// ClassicFleet is the ship count per type required by FleetPolicyClassic
var ClassicFleet = map[model.ShipType]int{
	model.ShipHuge:   1,
	model.ShipLarge:  2,
	model.ShipMedium: 3,
	model.ShipSmall:  4,
}

// ShipLengths is the length implied by each ship type
var ShipLengths = map[model.ShipType]int{
	model.ShipHuge:   4,
	model.ShipLarge:  3,
	model.ShipMedium: 2,
	model.ShipSmall:  1,
}

// ParseFleetPolicy converts a configuration value to a FleetPolicy
func ParseFleetPolicy(s string) (FleetPolicy, error) {
	switch FleetPolicy(s) {
	case "", FleetPolicyAny:
		return FleetPolicyAny, nil
	case FleetPolicyClassic:
		return FleetPolicyClassic, nil
	default:
		return "", fmt.Errorf("unknown fleet policy %q", s)
	}
}

// checkComposition enforces the policy's ship counts and type lengths
func (p FleetPolicy) checkComposition(ships []model.Ship) error {
	if p != FleetPolicyClassic {
		return nil
	}

	counts := make(map[model.ShipType]int)
	for i, ship := range ships {
		want, ok := ShipLengths[ship.Type]
		if !ok {
			return fmt.Errorf("%w: ship %d has unknown type %q", model.ErrInvalidPlacement, i, ship.Type)
		}
		if ship.Length != want {
			return fmt.Errorf("%w: %s ship %d must have length %d", model.ErrInvalidPlacement, ship.Type, i, want)
		}
		counts[ship.Type]++
	}

	for shipType, want := range ClassicFleet {
		if counts[shipType] != want {
			return fmt.Errorf("%w: fleet needs %d %s ships, got %d", model.ErrInvalidPlacement, want, shipType, counts[shipType])
		}
	}
	return nil
}
