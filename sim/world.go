package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocationIDFor names the i-th location of type t ("school_3").
func LocationIDFor(t LocationType, i int) LocationID {
	return LocationID(fmt.Sprintf("%s_%d", strings.ToLower(string(t)), i))
}

// BuildLocations constructs and registers every location in cfg, in table order.
func BuildLocations(ctx *SimulationContext, cfg *SimulationConfig) error {
	rng := ctx.RNG.ForSubsystem(SubsystemLocations)
	total := 0
	for _, lc := range cfg.Locations {
		opts, err := lc.Options()
		if err != nil {
			return err
		}
		for i := 0; i < lc.Num; i++ {
			loc, err := NewLocation(LocationIDFor(lc.Type, i), lc.Type, opts, rng)
			if err != nil {
				return err
			}
			if err := ctx.Registry.RegisterLocation(loc); err != nil {
				return err
			}
		}
		total += lc.Num
	}
	logrus.Debugf("built %d locations of %d types", total, len(cfg.Locations))
	return nil
}
