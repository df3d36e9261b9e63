package conformance_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/sandforce/sandforce/client"
)

const basePath = "/services/data/v59.0"

// sdk returns a client SDK instance pointed at the test server.
func sdk() *client.Client {
	return client.New(serverURL, client.WithToken("test-token"))
}

// doRequest makes an HTTP request to the test server and returns the response.
// The caller is responsible for closing the response body.
func doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverURL+path, bodyReader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// readJSON reads the response body and unmarshals it into a map.
func readJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("unmarshal response (status %d): body=%s err=%v", resp.StatusCode, string(b), err)
	}
	return result
}

// readJSONArray reads the response body and unmarshals it into a slice.
func readJSONArray(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var result []map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("unmarshal response (status %d): body=%s err=%v", resp.StatusCode, string(b), err)
	}
	return result
}

// mustStatus asserts the HTTP response has the expected status code.
func mustStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d; body=%s", expected, resp.StatusCode, string(b))
	}
}

// resetServer calls POST /_sandforce/reset to return the server to its
// seeded state.
func resetServer(t *testing.T) {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/_sandforce/reset", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("reset server failed: status=%d body=%s", resp.StatusCode, string(b))
	}
}

// assertErrorCode validates the Salesforce error array and its first code.
func assertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	errs := readJSONArray(t, resp)
	if len(errs) == 0 {
		t.Fatal("expected at least one error entry")
	}
	code, _ := errs[0]["errorCode"].(string)
	if code != expectedCode {
		t.Errorf("errorCode = %q, want %q (message: %v)", code, expectedCode, errs[0]["message"])
	}
	if _, ok := errs[0]["message"]; !ok {
		t.Error("error entry has no message field")
	}
}

// createAccount is a helper that creates an Account over raw HTTP and
// returns its ID.
func createAccount(t *testing.T, fields map[string]any) string {
	t.Helper()
	resp := doRequest(t, http.MethodPost, basePath+"/sobjects/Account", fields)
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("create account: status=%d body=%s", resp.StatusCode, string(b))
	}
	body := readJSON(t, resp)
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create account: no id in %v", body)
	}
	return id
}
