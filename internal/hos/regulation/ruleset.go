// Package regulation holds the jurisdiction-specific thresholds and the rest
// classification shared by the state machine and the rule engine.
package regulation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a Go duration string in YAML ("11h", "30m").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// CycleRule caps on-duty time over a rolling multi-day window.
type CycleRule struct {
	Enabled bool     `yaml:"enabled"`
	Limit   Duration `yaml:"limit"`
	Window  Duration `yaml:"window"`
}

// SplitSleeper configures the paired-rest alternative to a single daily reset.
type SplitSleeper struct {
	Enabled bool `yaml:"enabled"`
	// MinSleeper is the minimum length of the sleeper-berth-only period of the pair.
	MinSleeper Duration `yaml:"min_sleeper"`
	// MinCompanion is the minimum length of the other period of the pair.
	MinCompanion Duration `yaml:"min_companion"`
}

// RuleSet is the full set of thresholds for one regulatory variant.
type RuleSet struct {
	Name              string       `yaml:"name"`
	DrivingLimit      Duration     `yaml:"driving_limit"`
	DutyWindow        Duration     `yaml:"duty_window"`
	BreakAfterDriving Duration     `yaml:"break_after_driving"`
	BreakMinimum      Duration     `yaml:"break_minimum"`
	DailyReset        Duration     `yaml:"daily_reset"`
	SplitSleeper      SplitSleeper `yaml:"split_sleeper"`
	ShortCycle        CycleRule    `yaml:"short_cycle"`
	LongCycle         CycleRule    `yaml:"long_cycle"`
	CycleRestart      Duration     `yaml:"cycle_restart"`
}

// Default returns the US property-carrying thresholds.
func Default() RuleSet {
	return RuleSet{
		Name:              "us-property-carrying",
		DrivingLimit:      Duration(11 * time.Hour),
		DutyWindow:        Duration(14 * time.Hour),
		BreakAfterDriving: Duration(8 * time.Hour),
		BreakMinimum:      Duration(30 * time.Minute),
		DailyReset:        Duration(10 * time.Hour),
		SplitSleeper: SplitSleeper{
			Enabled:      true,
			MinSleeper:   Duration(7 * time.Hour),
			MinCompanion: Duration(2 * time.Hour),
		},
		ShortCycle:   CycleRule{Enabled: true, Limit: Duration(60 * time.Hour), Window: Duration(7 * 24 * time.Hour)},
		LongCycle:    CycleRule{Enabled: true, Limit: Duration(70 * time.Hour), Window: Duration(8 * 24 * time.Hour)},
		CycleRestart: Duration(34 * time.Hour),
	}
}

// Parse overlays a YAML document on the defaults and validates the result.
// Unknown keys are rejected.
func Parse(raw []byte) (RuleSet, error) {
	rules := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return RuleSet{}, err
	}
	if err := rules.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rules, nil
}

// Marshal renders the rule set as YAML.
func (r RuleSet) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Validate checks that the thresholds are positive and mutually consistent.
func (r RuleSet) Validate() error {
	var errs []error
	positive := func(name string, d Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	positive("driving_limit", r.DrivingLimit)
	positive("duty_window", r.DutyWindow)
	positive("break_after_driving", r.BreakAfterDriving)
	positive("break_minimum", r.BreakMinimum)
	positive("daily_reset", r.DailyReset)
	positive("cycle_restart", r.CycleRestart)

	if r.DrivingLimit > r.DutyWindow {
		errs = append(errs, errors.New("driving_limit must not exceed duty_window"))
	}
	if r.CycleRestart < r.DailyReset {
		errs = append(errs, errors.New("cycle_restart must be at least daily_reset"))
	}
	if r.SplitSleeper.Enabled {
		positive("split_sleeper.min_sleeper", r.SplitSleeper.MinSleeper)
		positive("split_sleeper.min_companion", r.SplitSleeper.MinCompanion)
		if r.SplitSleeper.MinSleeper >= r.DailyReset {
			errs = append(errs, errors.New("split_sleeper.min_sleeper must be shorter than daily_reset"))
		}
		if r.SplitSleeper.MinCompanion > r.SplitSleeper.MinSleeper {
			errs = append(errs, errors.New("split_sleeper.min_companion must not exceed min_sleeper"))
		}
	}
	cycles := []struct {
		name string
		rule CycleRule
	}{{"short_cycle", r.ShortCycle}, {"long_cycle", r.LongCycle}}
	if !r.ShortCycle.Enabled && !r.LongCycle.Enabled {
		errs = append(errs, errors.New("at least one of short_cycle or long_cycle must be enabled"))
	}
	for _, c := range cycles {
		if !c.rule.Enabled {
			continue
		}
		positive(c.name+".limit", c.rule.Limit)
		positive(c.name+".window", c.rule.Window)
		if c.rule.Limit > c.rule.Window {
			errs = append(errs, fmt.Errorf("%s.limit must not exceed its window", c.name))
		}
	}
	return errors.Join(errs...)
}
