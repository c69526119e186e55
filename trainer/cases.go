package trainer

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/diamondburned/shotgun-ai/game"
)

// Case is one labeled situation: in State the model should play Move.
// Zero Epochs or Tolerance fall back to the group's values; negative ones
// are rejected by Validate.
type Case struct {
	Name      string           `yaml:"name"`
	State     game.Observation `yaml:"state"`
	Move      game.Move        `yaml:"move"`
	Epochs    int              `yaml:"epochs,omitempty"`
	Tolerance float64          `yaml:"tolerance,omitempty"`
}

// Group is a named list of cases sharing default epochs and tolerance.
type Group struct {
	Name      string  `yaml:"name"`
	Data      []Case  `yaml:"data"`
	Epochs    int     `yaml:"epochs"`
	Tolerance float64 `yaml:"tolerance"`
}

// CaseSet is trained and evaluated in order.
type CaseSet []Group

func (g Group) epochs(c Case) int {
	if c.Epochs > 0 {
		return c.Epochs
	}
	return g.Epochs
}

func (g Group) tolerance(c Case) float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return g.Tolerance
}

// Validate checks that every case can be trained and evaluated.
func (s CaseSet) Validate() error {
	if len(s) == 0 {
		return errors.New("no training groups")
	}
	for _, g := range s {
		if len(g.Data) == 0 {
			return errors.Errorf("group %q has no cases", g.Name)
		}
		for _, c := range g.Data {
			if !c.Move.Valid() {
				return errors.Errorf("%s: %s: invalid move", g.Name, c.Name)
			}
			if c.Epochs < 0 {
				return errors.Errorf("%s: %s: epochs must not be negative", g.Name, c.Name)
			}
			if c.Tolerance < 0 {
				return errors.Errorf("%s: %s: tolerance must not be negative", g.Name, c.Name)
			}
			if g.epochs(c) <= 0 {
				return errors.Errorf("%s: %s: epochs must be positive", g.Name, c.Name)
			}
			if g.tolerance(c) < 0 {
				return errors.Errorf("%s: %s: tolerance must not be negative", g.Name, c.Name)
			}
		}
	}
	return nil
}

// LoadCases reads a YAML case set from path.
func LoadCases(path string) (CaseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read cases")
	}

	var set CaseSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := set.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid cases in %s", path)
	}
	return set, nil
}

// DefaultCases teaches the opening: reload first, then punish whatever the
// opponent did with its first turn.
func DefaultCases() CaseSet {
	start := game.Observation{
		MyShieldsRemaining:       game.InitialShields,
		OpponentShieldsRemaining: game.InitialShields,
	}

	afterReload := start
	afterReload.MyBulletsLoaded = 1
	afterReload.TurnCount = 1

	intoKnife := afterReload
	intoKnife.OpponentKnifeOut = true

	intoReload := afterReload
	intoReload.OpponentBulletsLoaded = 1

	return CaseSet{{
		Name: "Expect reload on second turn",
		Data: []Case{
			{Name: "First round is always reload", State: start, Move: game.Reload},
			{Name: "If Reloaded Into Knife, Just Reload", State: intoKnife, Move: game.Reload},
			{Name: "If Reloaded Into Block, Just Knife Out", State: afterReload, Move: game.TakeOutKnife},
			{Name: "If Reloaded Into Reload, Just Shoot", State: intoReload, Move: game.Shoot},
		},
		Epochs:    10,
		Tolerance: 0.01,
	}}
}
