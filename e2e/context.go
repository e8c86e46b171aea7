package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"credverify/internal/credential/signature"
)

// TestContext is the per-scenario state shared by every step package.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	// Keys holds the signing keys of universities registered in the scenario.
	Keys map[string]signature.KeyPair

	server *httptest.Server
}

// NewTestContext targets BASE_URL when set, otherwise a fresh in-process
// server over an empty in-memory ledger.
func NewTestContext() *TestContext {
	tc := &TestContext{
		BaseURL:    strings.TrimSuffix(os.Getenv("BASE_URL"), "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Keys:       make(map[string]signature.KeyPair),
	}
	if tc.BaseURL == "" {
		tc.server = newInProcessServer()
		tc.BaseURL = tc.server.URL
	}
	return tc
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

func (tc *TestContext) GET(path string) error            { return tc.Do(http.MethodGet, path, nil) }
func (tc *TestContext) POST(path string, body any) error { return tc.Do(http.MethodPost, path, body) }
func (tc *TestContext) PUT(path string, body any) error  { return tc.Do(http.MethodPut, path, body) }
func (tc *TestContext) PATCH(path string, body any) error {
	return tc.Do(http.MethodPatch, path, body)
}

// Do sends body to path and records the response. A string body is sent
// verbatim; anything else is JSON encoded.
func (tc *TestContext) Do(method, path string, body any) error {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, r)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return nil
}

// GetResponseField returns a top-level field of a JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, tc.LastResponseBody)
	}
	return value, nil
}

// ResponseContains matches text anywhere in the body, which also covers
// object keys.
func (tc *TestContext) ResponseContains(text string) bool {
	return bytes.Contains(tc.LastResponseBody, []byte(text))
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetKey(uni string) (signature.KeyPair, bool) {
	kp, ok := tc.Keys[uni]
	return kp, ok
}

func (tc *TestContext) SetKey(uni string, kp signature.KeyPair) {
	tc.Keys[uni] = kp
}
