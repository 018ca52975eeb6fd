package arena

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Scenario describes a skirmish: the arena surface and the units placed in
// it. Weapons are referenced by template name and must already be registered.
type Scenario struct {
	Name         string     `json:"name"`
	Frames       uint32     `json:"frames,omitempty" jsonschema:"description=Frames to run; 0 runs until one team remains"`
	Seed         int64      `json:"seed,omitempty"`
	GroundHeight float64    `json:"groundHeight,omitempty"`
	WaterHeight  float64    `json:"waterHeight,omitempty"`
	Units        []UnitSpec `json:"units"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: open %s: %w", path, err)
	}
	defer file.Close()
	scenario, err := DecodeScenario(file)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return scenario, nil
}

// DecodeScenario parses a scenario document, rejecting unknown fields.
func DecodeScenario(r io.Reader) (Scenario, error) {
	var scenario Scenario
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&scenario); err != nil {
		return Scenario{}, fmt.Errorf("decode: %w", err)
	}
	if len(scenario.Units) == 0 {
		return Scenario{}, errors.New("scenario has no units")
	}
	return scenario, nil
}

// Config returns cfg with the scenario's surface and seed applied.
func (s Scenario) Config(cfg Config) Config {
	cfg.Name = s.Name
	cfg.GroundHeight = s.GroundHeight
	cfg.WaterHeight = s.WaterHeight
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg
}

// Populate spawns every unit in the scenario. Units that fail to spawn are
// skipped and reported together.
func (a *Arena) Populate(s Scenario) error {
	var errs []error
	for i, spec := range s.Units {
		if _, err := a.Spawn(spec); err != nil {
			errs = append(errs, fmt.Errorf("units[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
