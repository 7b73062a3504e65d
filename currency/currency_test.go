package currency

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const feedDoc = `{
	"ForeignExchangeRates": [
		{"Rate": "1.35", "FromCurrency": {"Value": "USD"}, "ToCurrency": {"Value": "CAD"}},
		{"Rate": "1.45", "FromCurrency": {"Value": "EUR"}, "ToCurrency": {"Value": "CAD"}},
		{"Rate": "0.0095", "FromCurrency": {"Value": "JPY"}, "ToCurrency": {"Value": "CAD"}},
		{"Rate": "bogus", "FromCurrency": {"Value": "GBP"}, "ToCurrency": {"Value": "CAD"}},
		{"Rate": "0.90", "FromCurrency": {"Value": "AUD"}, "ToCurrency": {"Value": "USD"}}
	]
}`

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLoadUSDRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedDoc))
	}))
	defer srv.Close()

	table, err := NewClient(srv.URL, 5*time.Second).LoadUSDRates(context.Background())
	if err != nil {
		t.Fatalf("LoadUSDRates: %v", err)
	}

	if !near(table["USD"], 1) {
		t.Errorf("USD rate = %v, want 1", table["USD"])
	}
	if !near(table["EUR"], 1.45/1.35) {
		t.Errorf("EUR rate = %v, want %v", table["EUR"], 1.45/1.35)
	}
	// Unparseable rates are skipped, non-CAD quotes ignored.
	if _, ok := table["GBP"]; ok {
		t.Error("unparseable GBP rate kept")
	}
	if _, ok := table["AUD"]; ok {
		t.Error("non-CAD quote kept")
	}

	// Symbol aliases mirror their ISO code's rate.
	if !near(table["$"], table["USD"]) {
		t.Errorf("$ alias = %v, want %v", table["$"], table["USD"])
	}
	if !near(table["€"], table["EUR"]) {
		t.Errorf("€ alias = %v, want %v", table["€"], table["EUR"])
	}
	if !near(table["¥"], table["JPY"]) {
		t.Errorf("¥ alias = %v, want %v", table["¥"], table["JPY"])
	}
	// Aliases for codes absent from the feed are absent too.
	if _, ok := table["₩"]; ok {
		t.Error("alias without underlying rate present")
	}
}

func TestLoadUSDRatesMissingUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ForeignExchangeRates": [
			{"Rate": "1.45", "FromCurrency": {"Value": "EUR"}, "ToCurrency": {"Value": "CAD"}}
		]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 5*time.Second).LoadUSDRates(context.Background()); err == nil {
		t.Fatal("expected error for feed without USD rate")
	}
}

func TestLoadUSDRatesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 5*time.Second).LoadUSDRates(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCodeFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"$", "USD"},
		{"CA$", "CAD"},
		{"€", "EUR"},
		{"₩", "KRW"},
		{"JPY", "JPY"},
		{"PHP", "PHP"},
		{"Unknown", "???"},
		{"abc", "???"},
		{"", "???"},
	}
	for _, tt := range tests {
		if got := CodeFromLabel(tt.label); got != tt.want {
			t.Errorf("CodeFromLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestConvertTotals(t *testing.T) {
	table := Table{"USD": 1, "$": 1, "EUR": 1.1}

	priced, totalUSD, unpriced := table.ConvertTotals(map[string]float64{
		"$":       50,
		"EUR":     10,
		"Unknown": 5,
	})

	if !near(priced["$"], 50) || !near(priced["EUR"], 11) {
		t.Errorf("priced = %v", priced)
	}
	if !near(totalUSD, 61) {
		t.Errorf("totalUSD = %v, want 61", totalUSD)
	}
	if len(unpriced) != 1 || unpriced[0] != "Unknown" {
		t.Errorf("unpriced = %v", unpriced)
	}
}
