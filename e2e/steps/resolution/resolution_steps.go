package resolution

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body []byte) error
	GET(path string) error
	GetResponseField(path string) (any, error)
	Expand(s string) string
	TenantID() string
}

// RegisterSteps registers resolution step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &resolutionSteps{tc: tc}

	ctx.Step(`^I resolve event "([^"]*)" with:$`, steps.resolveEvent)
	ctx.Step(`^I resolve event "([^"]*)" for tenant "([^"]*)" with:$`, steps.resolveEventForTenant)
	ctx.Step(`^I override the visitor with person "([^"]*)" as event "([^"]*)"$`, steps.overrideWithPerson)
	ctx.Step(`^I list the visitor's history$`, steps.listHistory)
	ctx.Step(`^the history should contain (\d+) entries$`, steps.historyShouldContain)
}

type resolutionSteps struct {
	tc TestContext

	// visitorID is captured from the last successful resolve.
	visitorID string
}

func (s *resolutionSteps) resolveEvent(eventID string, body *godog.DocString) error {
	return s.resolveEventForTenant(eventID, s.tc.TenantID(), body)
}

func (s *resolutionSteps) resolveEventForTenant(eventID, tenantID string, body *godog.DocString) error {
	path := fmt.Sprintf("/v1/tenants/%s/events/%s:resolve", tenantID, s.tc.Expand(eventID))
	if err := s.tc.POST(path, []byte(s.tc.Expand(body.Content))); err != nil {
		return err
	}
	if v, err := s.tc.GetResponseField("visitor.id"); err == nil {
		s.visitorID = fmt.Sprint(v)
	}
	return nil
}

func (s *resolutionSteps) overrideWithPerson(personID, eventID string) error {
	if s.visitorID == "" {
		return fmt.Errorf("no visitor resolved yet")
	}
	body, err := json.Marshal(map[string]string{
		"source_event_id": s.tc.Expand(eventID),
		"person_id":       personID,
	})
	if err != nil {
		return err
	}
	return s.tc.POST(fmt.Sprintf("/v1/tenants/%s/visitors/%s/override", s.tc.TenantID(), s.visitorID), body)
}

func (s *resolutionSteps) listHistory() error {
	if s.visitorID == "" {
		return fmt.Errorf("no visitor resolved yet")
	}
	return s.tc.GET(fmt.Sprintf("/v1/tenants/%s/visitors/%s/history", s.tc.TenantID(), s.visitorID))
}

func (s *resolutionSteps) historyShouldContain(n int) error {
	v, err := s.tc.GetResponseField("entries")
	if err != nil {
		return err
	}
	entries, ok := v.([]any)
	if !ok {
		return fmt.Errorf("entries is not a list")
	}
	if len(entries) != n {
		return fmt.Errorf("expected %d history entries, got %d", n, len(entries))
	}
	return nil
}
