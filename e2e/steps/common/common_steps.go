package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	PATCH(path string, body any) error
	GetResponseField(field string) (any, error)
	ResponseContains(field string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers common step definitions used across features
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background steps
	ctx.Step(`^the credential service is running$`, steps.serviceIsRunning)

	// Generic request steps
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)" with empty body$`, steps.postWithEmptyBody)
	ctx.Step(`^I PATCH "([^"]*)" with:$`, steps.patchWith)

	// Response assertion steps
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response body should be empty$`, steps.responseBodyShouldBeEmpty)
	ctx.Step(`^the response body should be "([^"]*)"$`, steps.responseBodyShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should contain "([^"]*)"$`, steps.responseFieldShouldContain)
	ctx.Step(`^the response should be a list of (\d+) items?$`, steps.responseListLength)
	ctx.Step(`^item (\d+) of the response should have "([^"]*)" equal to "([^"]*)"$`, steps.listItemFieldShouldEqual)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health/ready"); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("service not ready: status %d", status)
	}
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) postWithEmptyBody(ctx context.Context, path string) error {
	return s.tc.POST(path, map[string]any{})
}

func (s *commonSteps) patchWith(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc.PATCH(path, body.Content)
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	actualStatus := s.tc.GetLastResponseStatus()
	if actualStatus != expectedStatus {
		return fmt.Errorf("expected status %d but got %d", expectedStatus, actualStatus)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain field: %s\nResponse: %s", field, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseBodyShouldBeEmpty(ctx context.Context) error {
	if body := s.tc.GetLastResponseBody(); len(body) != 0 {
		return fmt.Errorf("expected empty body but got %s", string(body))
	}
	return nil
}

func (s *commonSteps) responseBodyShouldBe(ctx context.Context, expected string) error {
	if got := strings.TrimSpace(string(s.tc.GetLastResponseBody())); got != expected {
		return fmt.Errorf("expected body %s but got %s", expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expectedValue string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actualValue) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, actualValue)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldContain(ctx context.Context, field, expectedSubstring string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if !strings.Contains(fmt.Sprint(actualValue), expectedSubstring) {
		return fmt.Errorf("field %s: expected to contain %s but got %v", field, expectedSubstring, actualValue)
	}
	return nil
}

func (s *commonSteps) list() ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON list: %w", err)
	}
	return items, nil
}

func (s *commonSteps) responseListLength(ctx context.Context, n int) error {
	items, err := s.list()
	if err != nil {
		return err
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items but got %d: %s", n, len(items), string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) listItemFieldShouldEqual(ctx context.Context, index int, field, expected string) error {
	items, err := s.list()
	if err != nil {
		return err
	}
	if index < 1 || index > len(items) {
		return fmt.Errorf("no item %d in a list of %d", index, len(items))
	}
	if got := fmt.Sprint(items[index-1][field]); got != expected {
		return fmt.Errorf("item %d field %s: expected %s but got %s", index, field, expected, got)
	}
	return nil
}
