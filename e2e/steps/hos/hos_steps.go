package hos

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	DELETE(path string) error
	GetResponseField(field string) (interface{}, error)
	Driver(name string) string
}

// RegisterSteps registers duty-status and compliance steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &hosSteps{tc: tc}

	// Submission steps
	ctx.Step(`^driver "([^"]*)" reports "([^"]*)" at "([^"]*)"$`, steps.reportStatus)
	ctx.Step(`^driver "([^"]*)" reports "([^"]*)" at "([^"]*)" as sequence (\d+)$`, steps.reportStatusWithSequence)
	ctx.Step(`^driver "([^"]*)" corrects sequence (\d+) to "([^"]*)" at "([^"]*)" noting "([^"]*)"$`, steps.correctStatus)
	ctx.Step(`^driver "([^"]*)" voids sequence (\d+) at "([^"]*)" noting "([^"]*)"$`, steps.voidEvent)

	// Read steps
	ctx.Step(`^I request the status of driver "([^"]*)"$`, steps.requestStatus)
	ctx.Step(`^I request the status of driver "([^"]*)" at "([^"]*)"$`, steps.requestStatusAt)
	ctx.Step(`^I list violations for driver "([^"]*)"$`, steps.listViolations)
	ctx.Step(`^I evict the cached status of driver "([^"]*)"$`, steps.evictStatus)
	ctx.Step(`^I list the log of driver "([^"]*)" from "([^"]*)" to "([^"]*)"$`, steps.listEvents)

	// Assertion steps
	ctx.Step(`^the response should list (\d+) violations?$`, steps.responseShouldListViolations)
	ctx.Step(`^the response should list a "([^"]*)" violation with status "([^"]*)"$`, steps.responseShouldListViolation)
	ctx.Step(`^the response should list events with sequences "([^"]*)"$`, steps.responseShouldListEvents)
}

type hosSteps struct {
	tc TestContext
}

func (s *hosSteps) eventsPath(driver string) string {
	return fmt.Sprintf("/drivers/%s/events", url.PathEscape(s.tc.Driver(driver)))
}

func (s *hosSteps) reportStatus(ctx context.Context, driver, status, at string) error {
	return s.tc.POST(s.eventsPath(driver), map[string]interface{}{
		"timestamp": at,
		"status":    status,
		"source":    "e2e",
	})
}

func (s *hosSteps) reportStatusWithSequence(ctx context.Context, driver, status, at string, seq int) error {
	return s.tc.POST(s.eventsPath(driver), map[string]interface{}{
		"sequence_number": seq,
		"timestamp":       at,
		"status":          status,
		"source":          "e2e",
	})
}

func (s *hosSteps) correctStatus(ctx context.Context, driver string, seq int, status, at, note string) error {
	return s.tc.POST(s.eventsPath(driver), map[string]interface{}{
		"timestamp": at,
		"correction": map[string]interface{}{
			"sequence":   seq,
			"status":     status,
			"annotation": note,
		},
	})
}

func (s *hosSteps) voidEvent(ctx context.Context, driver string, seq int, at, note string) error {
	return s.tc.POST(s.eventsPath(driver), map[string]interface{}{
		"timestamp": at,
		"correction": map[string]interface{}{
			"sequence":   seq,
			"void":       true,
			"annotation": note,
		},
	})
}

func (s *hosSteps) requestStatus(ctx context.Context, driver string) error {
	return s.tc.GET(fmt.Sprintf("/drivers/%s/status", url.PathEscape(s.tc.Driver(driver))))
}

func (s *hosSteps) requestStatusAt(ctx context.Context, driver, at string) error {
	return s.tc.GET(fmt.Sprintf("/drivers/%s/status?at=%s", url.PathEscape(s.tc.Driver(driver)), url.QueryEscape(at)))
}

func (s *hosSteps) listViolations(ctx context.Context, driver string) error {
	return s.tc.GET(fmt.Sprintf("/drivers/%s/violations", url.PathEscape(s.tc.Driver(driver))))
}

func (s *hosSteps) evictStatus(ctx context.Context, driver string) error {
	return s.tc.DELETE(fmt.Sprintf("/drivers/%s/cache", url.PathEscape(s.tc.Driver(driver))))
}

func (s *hosSteps) listEvents(ctx context.Context, driver, start, end string) error {
	return s.tc.GET(fmt.Sprintf("/drivers/%s/events?start=%s&end=%s",
		url.PathEscape(s.tc.Driver(driver)), url.QueryEscape(start), url.QueryEscape(end)))
}

// responseShouldListEvents compares the listed sequence numbers, comma separated, in order.
func (s *hosSteps) responseShouldListEvents(ctx context.Context, want string) error {
	raw, err := s.tc.GetResponseField("events")
	if err != nil {
		return err
	}
	list, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("events is not a list")
	}
	got := make([]string, 0, len(list))
	for _, item := range list {
		ev, ok := item.(map[string]interface{})
		if !ok {
			return fmt.Errorf("event entry is not an object")
		}
		got = append(got, fmt.Sprintf("%v", ev["sequence_number"]))
	}
	if strings.Join(got, ",") != want {
		return fmt.Errorf("expected sequences %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

func (s *hosSteps) violations() ([]map[string]interface{}, error) {
	raw, err := s.tc.GetResponseField("violations")
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("violations is not a list")
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		v, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("violation entry is not an object")
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *hosSteps) responseShouldListViolations(ctx context.Context, n int) error {
	vs, err := s.violations()
	if err != nil {
		return err
	}
	if len(vs) != n {
		return fmt.Errorf("expected %d violations, got %d", n, len(vs))
	}
	return nil
}

func (s *hosSteps) responseShouldListViolation(ctx context.Context, rule, status string) error {
	vs, err := s.violations()
	if err != nil {
		return err
	}
	for _, v := range vs {
		if v["rule_id"] == rule && v["status"] == status {
			return nil
		}
	}
	return fmt.Errorf("no %s violation with status %s among %d", rule, status, len(vs))
}
