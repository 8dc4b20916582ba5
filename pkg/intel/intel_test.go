package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainbreak/chainview/pkg/errors"
)

func TestSevere(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{RiskCritical, true},
		{RiskHigh, true},
		{"high", true}, // case-insensitive
		{RiskMedium, false},
		{RiskLow, false},
		{RiskVeryLow, false},
		{"", false},
	}
	for _, tt := range tests {
		f := Flag{RiskLevel: tt.level}
		if got := f.Severe(); got != tt.want {
			t.Errorf("Severe(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewSet(t *testing.T) {
	s := NewSet([]Flag{
		{Address: "a", RiskLevel: RiskLow},
		{Address: "a", RiskLevel: RiskHigh}, // later duplicate wins
		{Address: "", RiskLevel: RiskHigh},  // empty address skipped
		{Address: "b", RiskLevel: RiskMedium},
	})

	if len(s) != 2 {
		t.Errorf("len(set) = %d, want 2", len(s))
	}
	if f, ok := s.Lookup("a"); !ok || f.RiskLevel != RiskHigh {
		t.Errorf("Lookup(a) = %+v, %v", f, ok)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported a hit")
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider([]Flag{
		{Address: "a", RiskLevel: RiskHigh},
		{Address: "b", RiskLevel: RiskLow},
	})

	flags, err := p.Check(context.Background(), []string{"a", "c"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(flags) != 1 || flags[0].Address != "a" {
		t.Errorf("Check() = %+v, want only address a", flags)
	}
}

func TestHTTPProviderCheck(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Addresses) != 2 {
			t.Errorf("addresses = %v", req.Addresses)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"illicit_addresses": []Flag{
					{Address: "a", RiskLevel: RiskHigh, Confidence: 0.9, Sources: []string{"ofac"}},
				},
			},
		})
	}))
	defer srv.Close()

	flags, err := NewHTTPProvider(srv.URL).Check(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if gotPath != "/api/threat-intelligence/check-graph" {
		t.Errorf("path = %v", gotPath)
	}
	if len(flags) != 1 || flags[0].Address != "a" || !flags[0].Severe() {
		t.Errorf("flags = %+v", flags)
	}
}

func TestHTTPProviderEmptyRequest(t *testing.T) {
	p := NewHTTPProvider("http://unused.invalid")
	flags, err := p.Check(context.Background(), nil)
	if err != nil || flags != nil {
		t.Errorf("Check(nil) = %v, %v; want nil, nil", flags, err)
	}
}

func TestHTTPProviderServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "scoring backend offline"})
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).Check(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("Check() succeeded, want error")
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("code = %v, want NETWORK_ERROR", errors.GetCode(err))
	}
}
