package winprob

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/charleschow/mlb-winprob/internal/config"
	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

//go:embed scenarios.yaml
var scenarioData []byte

// Scenario is a named preset game state.
type Scenario struct {
	Key         string
	Name        string
	NameJA      string
	Description string
	State       baseball.GameState
}

// registry holds the presets. Built-ins are parsed at init; RegisterScenarios
// may add more during start-up, after which the registry is only read.
var registry = struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]Scenario
}{byKey: make(map[string]Scenario)}

func init() {
	sf, err := config.ParseScenarioFile(scenarioData)
	if err != nil {
		panic(fmt.Sprintf("winprob: embedded scenarios: %v", err))
	}
	if err := RegisterScenarios(sf.Scenarios...); err != nil {
		panic(fmt.Sprintf("winprob: embedded scenarios: %v", err))
	}
}

// RegisterScenarios adds presets. A key that is already registered, or that
// repeats within defs, is an error. On error nothing is added.
func RegisterScenarios(defs ...config.ScenarioDef) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	added := make([]Scenario, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if _, ok := registry.byKey[d.Key]; ok || seen[d.Key] {
			return fmt.Errorf("scenario %q: duplicate key", d.Key)
		}
		seen[d.Key] = true

		half, err := baseball.ParseHalf(d.Half)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", d.Key, err)
		}
		added = append(added, Scenario{
			Key:         d.Key,
			Name:        d.Name,
			NameJA:      d.NameJA,
			Description: d.Description,
			State: baseball.NewGameState(d.Inning, half, d.Outs,
				baseball.RunnersFromInts(d.Runners[0], d.Runners[1], d.Runners[2]),
				d.ScoreDiff, baseball.DefaultRunsPerGame),
		})
	}

	for _, s := range added {
		registry.order = append(registry.order, s.Key)
		registry.byKey[s.Key] = s
	}
	return nil
}

// Scenarios lists preset keys in registration order.
func Scenarios() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]string(nil), registry.order...)
}

func LookupScenario(key string) (Scenario, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.byKey[key]
	return s, ok
}

// ScenarioAnalysis is the result of analysing a preset. Unknown names come
// back with Error set instead of failing, so callers can show it as-is.
type ScenarioAnalysis struct {
	Error string `json:"error,omitempty"`

	Scenario          string              `json:"scenario,omitempty"`
	ScenarioJA        string              `json:"scenario_ja,omitempty"`
	Description       string              `json:"description,omitempty"`
	GameState         *baseball.GameState `json:"game_state,omitempty"`
	WinProbability    float64             `json:"win_probability"`
	WinProbabilityPct string              `json:"win_probability_pct,omitempty"`
	LeverageIndex     float64             `json:"leverage_index"`
	LeverageLabel     string              `json:"leverage_label,omitempty"`
	Tactics           []Recommendation    `json:"tactics,omitempty"`
}

// AnalyzeScenario runs the full model on a preset in scoring environment rpg.
func AnalyzeScenario(key string, rpg float64) ScenarioAnalysis {
	s, ok := LookupScenario(key)
	if !ok {
		return ScenarioAnalysis{Error: "Unknown scenario: " + key}
	}

	gs := s.State.WithRPG(rpg)
	res := FullAnalysis(gs, nil, nil)
	return ScenarioAnalysis{
		Scenario:          s.Name,
		ScenarioJA:        s.NameJA,
		Description:       s.Description,
		GameState:         &res.GameState,
		WinProbability:    res.WinProbability,
		WinProbabilityPct: res.WinProbabilityPct,
		LeverageIndex:     res.LeverageIndex,
		LeverageLabel:     res.LeverageLabel,
		Tactics:           res.Tactics,
	}
}
