package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// mockRoundTripper is a custom RoundTripper for testing
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	return resp, nil
}

// failingRoundTripper simulates a request that never gets a response.
type failingRoundTripper struct{}

func (failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
}

const parisReport = `{"request":{"type":"City","unit":"m"},"current":{"temperature":21.2,"weather_descriptions":["Sunny"]},"location":{"name":"Paris","country":"France","lat":"48.85","lon":"2.35"}}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	client, err := NewClient("http://reports.test", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.HTTPClient = &http.Client{Transport: &mockRoundTripper{handler: handler}}
	return client
}

func TestGetReport_Success(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/weather/abc123XYZ789" {
			t.Errorf("expected path /weather/abc123XYZ789, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(parisReport))
	})

	client := newTestClient(t, handler)
	report, err := client.GetReport(context.Background(), "abc123XYZ789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls)
	}
	if report.Location.Name != "Paris" || report.Location.Lat != "48.85" || report.Location.Lon != "2.35" {
		t.Errorf("unexpected location: %+v", report.Location)
	}
	if report.Current.Temperature != 21.2 {
		t.Errorf("expected temperature 21.2, got %v", report.Current.Temperature)
	}
	if string(report.Raw) != parisReport {
		t.Errorf("expected raw body to be kept")
	}
}

func TestGetReport_NotFoundWithDetail(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Report not found"}`))
	})

	client := newTestClient(t, handler)
	_, err := client.GetReport(context.Background(), "missing")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", se.StatusCode)
	}
	if se.Detail != "Report not found" {
		t.Errorf("expected detail %q, got %q", "Report not found", se.Detail)
	}
}

func TestGetReport_ErrorBodyVariants(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{name: "empty body", status: http.StatusNotFound, body: "", detail: ""},
		{name: "not json", status: http.StatusBadGateway, body: "<html>bad gateway</html>", detail: ""},
		{name: "no detail", status: http.StatusNotFound, body: `{"message":"nope"}`, detail: ""},
		{name: "list detail", status: http.StatusUnprocessableEntity, body: `{"detail":[{"msg":"field required"}]}`, detail: ""},
		{name: "string detail", status: http.StatusInternalServerError, body: `{"detail":"boom"}`, detail: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			client := newTestClient(t, handler)
			_, err := client.GetReport(context.Background(), "abc")

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %T: %v", err, err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.StatusCode)
			}
			if se.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, se.Detail)
			}
		})
	}
}

func TestGetReport_TransportFailure(t *testing.T) {
	client, err := NewClient("http://reports.test", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.HTTPClient = &http.Client{Transport: failingRoundTripper{}}

	_, err = client.GetReport(context.Background(), "abc")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestGetReport_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		info string
	}{
		{name: "missing location", body: `{"current":{"temperature":3}}`},
		{name: "numeric lat", body: `{"current":{"temperature":3},"location":{"name":"X","lat":1.5,"lon":"2"}}`},
		{name: "string temperature", body: `{"current":{"temperature":"3"},"location":{"name":"X","lat":"1","lon":"2"}}`},
		{name: "not json", body: `not json`},
		{
			name: "stored provider error",
			body: `{"success":false,"error":{"code":101,"type":"missing_access_key","info":"You have not supplied an API Access Key."}}`,
			info: "You have not supplied an API Access Key.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			client := newTestClient(t, handler)
			_, err := client.GetReport(context.Background(), "abc")

			var me *MalformedError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MalformedError, got %T: %v", err, err)
			}
			if me.Info != tt.info {
				t.Errorf("expected info %q, got %q", tt.info, me.Info)
			}
		})
	}
}

func TestGetReport_InvalidIDSendsNoRequest(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	client := newTestClient(t, handler)

	for _, id := range []string{"", "../admin", "a b", "id?x=1", "a/b"} {
		if _, err := client.GetReport(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("GetReport(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
	if calls != 0 {
		t.Errorf("expected no requests, got %d", calls)
	}
}

func TestReportURL(t *testing.T) {
	client, err := NewClient("http://localhost:8000/", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got := client.ReportURL("Ab_9-z")
	want := "http://localhost:8000/weather/Ab_9-z"
	if got != want {
		t.Errorf("ReportURL = %q, want %q", got, want)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client, err := NewClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.BaseURL != DefaultBaseURL {
		t.Errorf("expected base url %q, got %q", DefaultBaseURL, client.BaseURL)
	}
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", client.HTTPClient.Timeout)
	}
}

type countingFetcher struct {
	calls int32
}

func (f *countingFetcher) GetReport(ctx context.Context, id string) (*Report, error) {
	atomic.AddInt32(&f.calls, 1)
	return &Report{Location: ReportLocation{Name: id}}, nil
}

func TestRateLimitedFetcher_ForwardsWithinBurst(t *testing.T) {
	inner := &countingFetcher{}
	limited := NewRateLimitedFetcher(inner, 1, 2)

	for i := 0; i < 2; i++ {
		if _, err := limited.GetReport(context.Background(), "abc"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 forwarded calls, got %d", inner.calls)
	}
}

func TestRateLimitedFetcher_CanceledWaitIsTransportFailure(t *testing.T) {
	inner := &countingFetcher{}
	limited := NewRateLimitedFetcher(inner, 0.001, 1)

	if _, err := limited.GetReport(context.Background(), "abc"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := limited.GetReport(ctx, "abc")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 forwarded call, got %d", inner.calls)
	}
}
