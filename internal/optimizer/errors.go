package optimizer

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
)

var (
	ErrInfeasibleModel  = errors.New("no squad satisfies the constraints")
	ErrUnresolvedSquad  = errors.New("current squad does not resolve against the player pool")
	ErrSolverTimeout    = errors.New("solver timed out")
	ErrPoolUnavailable  = errors.New("player pool unavailable")
	ErrSquadUnavailable = errors.New("current squad unavailable")
)

func mapSolveError(model string, err error) error {
	switch {
	case errors.Is(err, ilp.ErrInfeasible):
		return fmt.Errorf("%w: %s: %v", ErrInfeasibleModel, model, err)
	case errors.Is(err, ilp.ErrTimeout), errors.Is(err, ilp.ErrNodeLimit):
		return fmt.Errorf("%w: %s: %v", ErrSolverTimeout, model, err)
	default:
		return fmt.Errorf("solve %s: %w", model, err)
	}
}
