package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioDef is one preset game state as written in YAML.
type ScenarioDef struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	NameJA      string `yaml:"name_ja"`
	Description string `yaml:"description"`
	Inning      int    `yaml:"inning"`
	Half        string `yaml:"half"`
	Outs        int    `yaml:"outs"`
	Runners     [3]int `yaml:"runners"`
	ScoreDiff   int    `yaml:"score_diff"`
}

type ScenarioFile struct {
	Scenarios []ScenarioDef `yaml:"scenarios"`
}

// LoadScenarioFile reads extra preset scenarios from path.
func LoadScenarioFile(path string) (ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioFile{}, fmt.Errorf("read scenarios: %w", err)
	}
	return ParseScenarioFile(data)
}

// ParseScenarioFile decodes and sanity-checks a scenarios document.
func ParseScenarioFile(data []byte) (ScenarioFile, error) {
	var sf ScenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return ScenarioFile{}, fmt.Errorf("parse scenarios: %w", err)
	}

	seen := make(map[string]bool, len(sf.Scenarios))
	for i, s := range sf.Scenarios {
		switch {
		case s.Key == "":
			return ScenarioFile{}, fmt.Errorf("scenario #%d: missing key", i)
		case seen[s.Key]:
			return ScenarioFile{}, fmt.Errorf("scenario %q: duplicate key", s.Key)
		case s.Inning < 1:
			return ScenarioFile{}, fmt.Errorf("scenario %q: inning must be >= 1", s.Key)
		case s.Outs < 0 || s.Outs > 2:
			return ScenarioFile{}, fmt.Errorf("scenario %q: outs must be 0-2", s.Key)
		case s.Half != "top" && s.Half != "bottom":
			return ScenarioFile{}, fmt.Errorf("scenario %q: half must be top or bottom", s.Key)
		}
		seen[s.Key] = true
	}
	return sf, nil
}
