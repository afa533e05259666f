package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"budget/internal/log"
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedProbes      int64
}

// Finding describes why a request looked suspicious. Probe findings are
// rejected; the rest are only logged.
type Finding struct {
	Reason string
	Probe  bool
}

var (
	probePaths = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh", "etc/passwd", "cmd.exe",
	}
	injectionPatterns = []string{
		"eval(", "javascript:", "<script", "union select",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// Detector handles suspicious request detection
type Detector struct {
	metrics        *DetectionMetrics
	mu             sync.RWMutex
	trustedProxies []*net.IPNet
}

// NewDetector creates a new security detector
func NewDetector() *Detector {
	return &Detector{
		metrics: &DetectionMetrics{},
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
			parseCIDR("::1/128"),
		},
	}
}

// parseCIDR is a helper to parse CIDR during initialization
func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// Inspect analyzes request patterns for potential threats.
func (d *Detector) Inspect(r *http.Request) (Finding, bool) {
	path := strings.ToLower(r.URL.Path)
	for _, pattern := range probePaths {
		if strings.Contains(path, pattern) {
			return Finding{Reason: "probe path " + pattern, Probe: true}, true
		}
	}

	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)
	for _, pattern := range injectionPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return Finding{Reason: "injection pattern " + pattern}, true
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range scannerAgents {
		if strings.Contains(userAgent, agent) {
			return Finding{Reason: "scanner agent " + agent}, true
		}
	}

	for _, method := range unusualMethods {
		if r.Method == method {
			return Finding{Reason: "method " + method, Probe: true}, true
		}
	}

	if len(r.URL.String()) > 2048 {
		return Finding{Reason: "url too long"}, true
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return Finding{Reason: "forwarding chain too long"}, true
	}

	return Finding{}, false
}

// DetectSuspiciousRequest reports whether Inspect flags r.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	_, suspicious := d.Inspect(r)
	return suspicious
}

// Middleware logs suspicious requests with the request-scoped logger and
// answers probes with 404.
func (d *Detector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			finding, suspicious := d.Inspect(r)
			if !suspicious {
				next.ServeHTTP(w, r)
				return
			}

			atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"reason", finding.Reason)

			if finding.Probe {
				atomic.AddInt64(&d.metrics.BlockedProbes, 1)
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractClientIP extracts the real client IP, validating forwarded headers
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	// Forwarded headers only count when the peer is a trusted proxy.
	if d.isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

// isTrustedProxy checks if an IP is from a trusted proxy
func (d *Detector) isTrustedProxy(ip net.IP) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
		BlockedProbes:      atomic.LoadInt64(&d.metrics.BlockedProbes),
	}
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, network)
	d.mu.Unlock()
	return nil
}
