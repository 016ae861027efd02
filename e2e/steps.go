// Package e2e drives a running idgraph server through its public HTTP API.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"idgraph/e2e/steps/resolution"
)

// TestContext holds one scenario's client state and last response.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	HTTPClient *http.Client

	runID        string
	token        string
	tenantID     string
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
}

// RegisterSteps registers every step definition for a scenario.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^I am authenticated for tenant "([^"]*)" as "([^"]*)"$`, tc.authenticate)
	ctx.Step(`^I am not authenticated$`, tc.unauthenticate)
	ctx.Step(`^the response status should be (\d+)$`, tc.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, tc.fieldShouldBe)

	resolution.RegisterSteps(ctx, tc)
}

func (tc *TestContext) reset() {
	tc.runID = strconv.FormatInt(time.Now().UnixNano(), 36)
	tc.token, tc.tenantID = "", ""
	tc.lastStatus, tc.lastBody, tc.lastResponse = 0, nil, nil
}

func (tc *TestContext) authenticate(tenantID, subject string) error {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": tenantID,
		"sub":       subject,
		"iss":       tc.Issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(time.Hour).Unix(),
	}).SignedString([]byte(tc.SigningKey))
	if err != nil {
		return err
	}
	tc.token, tc.tenantID = token, tenantID
	return nil
}

func (tc *TestContext) unauthenticate() error {
	tc.token = ""
	return nil
}

// Expand substitutes {run} with the scenario's unique id so scenarios never
// share events or cookies.
func (tc *TestContext) Expand(s string) string {
	return strings.ReplaceAll(s, "{run}", tc.runID)
}

func (tc *TestContext) TenantID() string { return tc.tenantID }

func (tc *TestContext) POST(path string, body []byte) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body []byte) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	if tc.lastBody, err = io.ReadAll(resp.Body); err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(tc.lastBody, &parsed); err == nil {
			tc.lastResponse = parsed
		}
	}
	return nil
}

// GetResponseField resolves a dotted path such as "entries.0.actor".
func (tc *TestContext) GetResponseField(path string) (any, error) {
	var cur any = tc.lastResponse
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
		}
	}
	return cur, nil
}

func (tc *TestContext) statusShouldBe(want int) error {
	if tc.lastStatus != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, tc.lastStatus, tc.lastBody)
	}
	return nil
}

func (tc *TestContext) fieldShouldBe(path, want string) error {
	v, err := tc.GetResponseField(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}
	return nil
}
