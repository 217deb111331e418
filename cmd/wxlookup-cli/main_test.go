package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather/abc" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"current":{"temperature":21.2},"location":{"name":"Paris","lat":"48.85","lon":"2.35"}}`))
	}))
	defer backend.Close()

	chdirForTest(t, t.TempDir())
	t.Setenv("WXLOOKUP_CONFIG", "")
	t.Setenv("WXLOOKUP_REPORT_BASE_URL", backend.URL)

	tests := []struct {
		name     string
		id       string
		ok       bool
		expected string
	}{
		{
			name:     "found",
			id:       "abc",
			ok:       true,
			expected: "Weather request submitted successfully!\n\nParis\n48.85, 2.35\n22°C\n",
		},
		{
			name:     "not found",
			id:       "zzz",
			ok:       false,
			expected: "Failed to find weather report with provided ID\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			ok, err := run(context.Background(), &out, tt.id)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
			if out.String() != tt.expected {
				t.Errorf("output = %q, want %q", out.String(), tt.expected)
			}
		})
	}
}
