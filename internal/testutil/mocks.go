package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// LatestReleasePath is the API path the release fetcher queries.
const LatestReleasePath = "/repos/GTNewHorizons/lwjgl3ify/releases/latest"

// MockGitHubServer provides a mock GitHub API and asset host for testing
type MockGitHubServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  []MockRequest
}

// MockResponse holds response data for a path
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// MockRequest records a request made to the mock server
type MockRequest struct {
	Method string
	Path   string
	Header http.Header
}

// MockAsset describes a release asset in a mock release
type MockAsset struct {
	Name string
	Body []byte
}

// NewMockGitHubServer creates a new mock GitHub API server
func NewMockGitHubServer(t *testing.T) *MockGitHubServer {
	t.Helper()

	mock := &MockGitHubServer{
		responses: make(map[string]MockResponse),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, MockRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
		})
		response, ok := mock.responses[r.URL.Path]
		mock.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Not Found",
			})
			return
		}

		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		if response.Headers["Content-Type"] == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(response.Body)))

		if response.StatusCode != 0 {
			w.WriteHeader(response.StatusCode)
		}
		w.Write(response.Body)
	}))

	t.Cleanup(func() {
		mock.Server.Close()
	})

	return mock
}

// SetResponse sets a 200 JSON response for a given path
func (m *MockGitHubServer) SetResponse(path string, data interface{}) error {
	return m.SetJSONResponse(path, http.StatusOK, data)
}

// SetJSONResponse sets a JSON response with custom status code
func (m *MockGitHubServer) SetJSONResponse(path string, statusCode int, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.SetRawResponse(path, statusCode, jsonData, nil)
	return nil
}

// SetRawResponse sets a raw response
func (m *MockGitHubServer) SetRawResponse(path string, statusCode int, body []byte, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
	}
}

// SetError sets an error response
func (m *MockGitHubServer) SetError(path string, statusCode int, message string) error {
	return m.SetJSONResponse(path, statusCode, map[string]string{
		"message": message,
	})
}

// SetLatestRelease publishes a release whose assets are served by this server
// under /download/<tag>/<name>.
func (m *MockGitHubServer) SetLatestRelease(t *testing.T, tag, body string, assets ...MockAsset) {
	t.Helper()

	type asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int    `json:"size"`
	}
	release := struct {
		TagName string  `json:"tag_name"`
		Name    string  `json:"name"`
		Body    string  `json:"body"`
		Assets  []asset `json:"assets"`
	}{TagName: tag, Name: tag, Body: body, Assets: []asset{}}

	for _, a := range assets {
		path := "/download/" + tag + "/" + a.Name
		m.SetRawResponse(path, http.StatusOK, a.Body, map[string]string{
			"Content-Type": "application/octet-stream",
		})
		release.Assets = append(release.Assets, asset{
			Name:               a.Name,
			BrowserDownloadURL: m.URL + path,
			Size:               len(a.Body),
		})
	}

	if err := m.SetResponse(LatestReleasePath, release); err != nil {
		t.Fatalf("failed to set release response: %v", err)
	}
}

// GetRequestCount returns the number of GET requests made to a path
func (m *MockGitHubServer) GetRequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.requests {
		if req.Path == path && req.Method == http.MethodGet {
			count++
		}
	}
	return count
}

// Requests returns a copy of the recorded requests
func (m *MockGitHubServer) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.requests...)
}

// ClearRequests clears the recorded requests
func (m *MockGitHubServer) ClearRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}
