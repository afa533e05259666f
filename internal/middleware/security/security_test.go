package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetector_Inspect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		method     string
		target     string
		userAgent  string
		suspicious bool
		probe      bool
	}{
		{name: "normal api call", method: http.MethodGet, target: "/api/budgets?month=2025-03", suspicious: false},
		{name: "curl is fine", method: http.MethodGet, target: "/api/goals", userAgent: "curl/8.4.0", suspicious: false},
		{name: "dotenv probe", method: http.MethodGet, target: "/.env", suspicious: true, probe: true},
		{name: "git probe", method: http.MethodGet, target: "/.git/config", suspicious: true, probe: true},
		{name: "injection in query", method: http.MethodGet, target: "/api/transactions?q=1+union+select+*", suspicious: true},
		{name: "scanner agent", method: http.MethodGet, target: "/", userAgent: "sqlmap/1.7", suspicious: true},
		{name: "trace method", method: "TRACE", target: "/", suspicious: true, probe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}
			finding, suspicious := d.Inspect(r)
			if suspicious != tt.suspicious {
				t.Fatalf("suspicious = %v (%q), want %v", suspicious, finding.Reason, tt.suspicious)
			}
			if finding.Probe != tt.probe {
				t.Errorf("probe = %v, want %v", finding.Probe, tt.probe)
			}
		})
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/index.php", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("probe status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	r.Header.Set("User-Agent", "nikto")
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Errorf("logged-only status = %d, want 200", rec.Code)
	}

	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 || m.BlockedProbes != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{name: "direct", remoteAddr: "203.0.113.7:5000", want: "203.0.113.7"},
		{name: "untrusted peer ignores header", remoteAddr: "203.0.113.7:5000", xff: "198.51.100.1", want: "203.0.113.7"},
		{name: "trusted proxy forwards", remoteAddr: "10.0.0.2:80", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "trusted proxy real ip", remoteAddr: "127.0.0.1:80", realIP: "198.51.100.9", want: "198.51.100.9"},
		{name: "garbage forwarded value", remoteAddr: "10.0.0.2:80", xff: "not-an-ip", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}

	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy accepted an invalid CIDR")
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}
