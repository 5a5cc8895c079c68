package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/eryajf/promwrite"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Config defines the configuration for the metrics reporter
type Config struct {
	// Service identification
	Namespace   string
	Subsystem   string
	ServiceName string

	// Remote write configuration
	RemoteWriteURL      string
	RemoteWriteInterval time.Duration

	// Instance information
	InstanceIP   string
	Version      string
	BuildCommit  string
	BuildTime    string
	CustomLabels map[string]string

	// Registry to export; nil means DefaultRegistry
	Registry *Registry

	// Optional logger
	Logger *zap.Logger

	// DNS resolver options (optional, for advanced use cases)
	DNSEnable          bool
	DNSCacheTTL        time.Duration
	DNSRefreshInterval time.Duration
	DNSTimeout         time.Duration
	DNSUDPServers      []string // e.g. ["1.1.1.1:53", "8.8.8.8:53"]
	DNSTLSServers      []string // e.g. ["1.1.1.1:853", "9.9.9.9:853"]
	DNSDoHEndpoints    []string // e.g. ["https://cloudflare-dns.com/dns-query"]
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	ip, _ := GetOutboundIPv4()
	return Config{
		Namespace:           "app",
		Subsystem:           "prod",
		ServiceName:         "service",
		RemoteWriteInterval: 15 * time.Second,
		InstanceIP:          ip,
		CustomLabels:        make(map[string]string),
	}
}

// Reporter periodically snapshots a registry and pushes the samples to a
// Prometheus remote write endpoint.
type Reporter struct {
	config   Config
	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// mutex guards samplers, client, and the DNS refresh state below. The
	// export loop and the DNS refresh loop both reach refreshDNS, and the
	// export loop reads client while a refresh may replace it.
	mutex    sync.RWMutex
	samplers []func()
	client   *promwrite.Client

	targetHost  string
	resolvedIPs []string
	lastResolve time.Time
	dnsCfg      dnsConfig
	dnsCache    map[string]dnsCacheEntry
}

type dnsConfig struct {
	enabled         bool
	cacheTTL        time.Duration
	refreshInterval time.Duration
	timeout         time.Duration
	udpServers      []string
	tlsServers      []string
	dohEndpoints    []string
}

type dnsCacheEntry struct {
	ips []string
	ttl time.Time
}

// NewReporter creates a new metrics reporter
func NewReporter(config Config) (*Reporter, error) {
	if config.ServiceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	if config.InstanceIP == "" {
		ip, err := GetOutboundIPv4()
		if err != nil {
			return nil, fmt.Errorf("failed to get outbound IPv4: %w", err)
		}
		config.InstanceIP = ip
	}

	registry := config.Registry
	if registry == nil {
		registry = DefaultRegistry
	}

	ctx, cancel := context.WithCancel(context.Background())

	var client *promwrite.Client
	if config.RemoteWriteURL != "" {
		client = promwrite.NewClient(config.RemoteWriteURL)
	}

	// Parse target host for DNS refresh
	var host string
	if config.RemoteWriteURL != "" {
		if u, err := url.Parse(config.RemoteWriteURL); err == nil {
			host = u.Hostname()
		}
	}

	r := &Reporter{
		config:     config,
		registry:   registry,
		client:     client,
		ctx:        ctx,
		cancel:     cancel,
		targetHost: host,
		dnsCfg: dnsConfig{
			enabled:         config.DNSEnable,
			cacheTTL:        pickDuration(config.DNSCacheTTL, 10*time.Minute),
			refreshInterval: pickDuration(config.DNSRefreshInterval, 5*time.Minute),
			timeout:         pickDuration(config.DNSTimeout, 800*time.Millisecond),
			udpServers:      append([]string(nil), config.DNSUDPServers...),
			tlsServers:      append([]string(nil), config.DNSTLSServers...),
			dohEndpoints:    append([]string(nil), config.DNSDoHEndpoints...),
		},
		dnsCache: make(map[string]dnsCacheEntry),
	}
	return r, nil
}

func pickDuration(v time.Duration, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// RegisterSampler adds a hook invoked before each snapshot. Samplers
// refresh gauges whose values are read from the environment rather than
// maintained by application code (see RuntimeMetrics).
func (r *Reporter) RegisterSampler(fn func()) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.samplers = append(r.samplers, fn)

	if r.config.Logger != nil {
		r.config.Logger.Debug("Registered metrics sampler")
	}
}

// Start launches the periodic export loop and, if configured, the DNS
// refresh loop
func (r *Reporter) Start() error {
	r.mutex.Lock()
	if r.client == nil && r.config.RemoteWriteURL != "" {
		r.client = promwrite.NewClient(r.config.RemoteWriteURL)
	}
	client := r.client
	r.mutex.Unlock()

	if client == nil {
		if r.config.Logger != nil {
			r.config.Logger.Warn("Starting metrics reporter without remote write URL")
		}
		return nil
	}

	// Periodic write loop
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		interval := r.config.RemoteWriteInterval
		if interval <= 0 {
			interval = 15 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.writeMetrics(); err != nil {
					if r.config.Logger != nil {
						r.config.Logger.Error("Failed to write metrics", zap.Error(err))
					}
				}
			case <-r.ctx.Done():
				return
			}
		}
	}()

	// DNS refresh loop
	if r.dnsCfg.enabled && r.targetHost != "" && net.ParseIP(r.targetHost) == nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ticker := time.NewTicker(r.dnsCfg.refreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.refreshDNS(false)
				case <-r.ctx.Done():
					return
				}
			}
		}()
	}

	return nil
}

// Stop cancels the export loops and waits for them to drain
func (r *Reporter) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Snapshot runs the registered samplers and collects every instrument in
// the registry
func (r *Reporter) Snapshot() []CollectedMetric {
	r.mutex.RLock()
	samplers := r.samplers
	r.mutex.RUnlock()

	for _, fn := range samplers {
		fn()
	}
	return r.registry.CollectAll()
}

// writeMetrics sends collected metrics to remote write endpoint
func (r *Reporter) writeMetrics() error {
	r.mutex.RLock()
	client := r.client
	r.mutex.RUnlock()

	// Check if client is available
	if client == nil {
		return fmt.Errorf("no remote write client configured")
	}

	collected := r.Snapshot()
	tsList := r.convertToTimeSeries(collected, time.Now())
	if len(tsList) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(r.ctx, 15*time.Second)
	defer cancel()

	req := &promwrite.WriteRequest{
		TimeSeries: tsList,
	}

	_, err := client.Write(ctx, req)
	if err != nil {
		// On DNS-related failures, try a forced DNS refresh once
		if r.refreshDNS(true) {
			r.mutex.RLock()
			client = r.client
			r.mutex.RUnlock()
			_, retryErr := client.Write(ctx, req)
			if retryErr == nil {
				return nil
			}
			return fmt.Errorf("writing time series failed after dns refresh: %w", retryErr)
		}
		return fmt.Errorf("writing time series failed: %w", err)
	}

	return nil
}

// RefreshDNS exposes DNS refresh functionality for external use
func (r *Reporter) RefreshDNS(force bool) bool {
	return r.refreshDNS(force)
}

// refreshDNS resolves the target host and recreates the client if IP set
// changed. The lock is released during the actual resolution: a lookup can
// take the full DNS timeout and must not block the export loop.
func (r *Reporter) refreshDNS(force bool) bool {
	if r.targetHost == "" {
		return false
	}

	r.mutex.Lock()

	// Throttle resolves
	if !force && time.Since(r.lastResolve) < 1*time.Minute {
		r.mutex.Unlock()
		return false
	}

	// Try cache first
	if ce, ok := r.dnsCache[r.targetHost]; ok && time.Now().Before(ce.ttl) && !force {
		if !stringSlicesEqual(ce.ips, r.resolvedIPs) {
			r.resolvedIPs = ce.ips
			r.lastResolve = time.Now()
			if r.config.RemoteWriteURL != "" {
				r.client = promwrite.NewClient(r.config.RemoteWriteURL)
			}
			r.mutex.Unlock()
			if r.config.Logger != nil {
				r.config.Logger.Info("DNS cache hit, refreshed client",
					zap.String("host", r.targetHost), zap.Strings("ips", ce.ips))
			}
			return true
		}
		r.lastResolve = time.Now()
		r.mutex.Unlock()
		return false
	}
	r.mutex.Unlock()

	var (
		newSet []string
		err    error
	)
	if r.dnsCfg.enabled {
		newSet, err = r.resolveFastest(r.targetHost)
	} else {
		sysIPs, e := net.LookupIP(r.targetHost)
		err = e
		for _, ip := range sysIPs {
			newSet = append(newSet, ip.String())
		}
	}

	if err != nil || len(newSet) == 0 {
		if r.config.Logger != nil {
			r.config.Logger.Warn("DNS lookup failed", zap.String("host", r.targetHost), zap.Error(err))
		}
		r.mutex.Lock()
		r.lastResolve = time.Now()
		r.mutex.Unlock()
		return false
	}

	r.mutex.Lock()
	changed := !stringSlicesEqual(newSet, r.resolvedIPs)
	r.resolvedIPs = newSet
	r.lastResolve = time.Now()

	// Cache the result
	if r.dnsCfg.enabled {
		r.dnsCache[r.targetHost] = dnsCacheEntry{ips: newSet, ttl: time.Now().Add(r.dnsCfg.cacheTTL)}
	}

	if changed || force {
		// Recreate client to force new connections
		if r.config.RemoteWriteURL != "" {
			r.client = promwrite.NewClient(r.config.RemoteWriteURL)
		}
		r.mutex.Unlock()
		if r.config.Logger != nil {
			r.config.Logger.Info("Refreshed remote write client after DNS update",
				zap.String("host", r.targetHost), zap.Strings("ips", newSet))
		}
		return true
	}
	r.mutex.Unlock()
	return false
}

// resolveFastest queries all configured resolvers concurrently and returns first success
func (r *Reporter) resolveFastest(host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.dnsCfg.timeout)
	defer cancel()

	type result struct {
		ips []string
		err error
	}
	ch := make(chan result, 1)
	var wg sync.WaitGroup

	// UDP servers
	for _, srv := range r.dnsCfg.udpServers {
		s := srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			ips, err := resolveUDP(ctx, host, s)
			select {
			case ch <- result{ips, err}:
			default:
			}
		}()
	}

	// TLS servers (DoT)
	for _, srv := range r.dnsCfg.tlsServers {
		s := srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			ips, err := resolveTLS(ctx, host, s)
			select {
			case ch <- result{ips, err}:
			default:
			}
		}()
	}

	// DoH endpoints
	for _, ep := range r.dnsCfg.dohEndpoints {
		e := ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			ips, err := resolveDoH(ctx, host, e)
			select {
			case ch <- result{ips, err}:
			default:
			}
		}()
	}

	// System resolver as fallback
	wg.Add(1)
	go func() {
		defer wg.Done()
		netIPs, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
		ips := make([]string, 0, len(netIPs))
		for _, ip := range netIPs {
			ips = append(ips, ip.String())
		}
		select {
		case ch <- result{ips, err}:
		default:
		}
	}()

	var firstErr error
	attempts := 1 + len(r.dnsCfg.udpServers) + len(r.dnsCfg.tlsServers) + len(r.dnsCfg.dohEndpoints)
	for i := 0; i < attempts; i++ {
		select {
		case res := <-ch:
			if res.err == nil && len(res.ips) > 0 {
				return res.ips, nil
			}
			if firstErr == nil {
				firstErr = res.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	wg.Wait()
	if firstErr == nil {
		firstErr = fmt.Errorf("no dns result")
	}
	return nil, firstErr
}

func resolveUDP(ctx context.Context, host, server string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	c := &dns.Client{Net: "udp", Timeout: 800 * time.Millisecond}
	r, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil || r == nil || r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("udp dns failed: %v", err)
	}
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

func resolveTLS(ctx context.Context, host, server string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	c := &dns.Client{Net: "tcp-tls", Timeout: 800 * time.Millisecond}
	r, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil || r == nil || r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("tls dns failed: %v", err)
	}
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

func resolveDoH(ctx context.Context, host, endpoint string) ([]string, error) {
	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(host), dns.TypeA)
	payload, err := q.Pack()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/dns-message")
	req.Header.Set("Accept", "application/dns-message")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("doh status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var r dns.Msg
	if err := r.Unpack(body); err != nil {
		return nil, err
	}
	if r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("doh rcode: %d", r.Rcode)
	}
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// convertToTimeSeries converts collected snapshots to promwrite time series format
func (r *Reporter) convertToTimeSeries(collected []CollectedMetric, now time.Time) []promwrite.TimeSeries {
	var result []promwrite.TimeSeries

	prefix := fmt.Sprintf("%s_%s", r.config.Namespace, r.config.Subsystem)

	for _, metric := range collected {
		metricName := fmt.Sprintf("%s_%s", prefix, sanitizeName(metric.Name))

		for _, value := range metric.Values {
			expectedCapacity := 4 + len(r.config.CustomLabels) + len(metric.FieldNames)

			labels := make([]promwrite.Label, 0, expectedCapacity)

			labels = append(labels, []promwrite.Label{
				{Name: "__name__", Value: metricName},
				{Name: "_instance_", Value: r.config.InstanceIP},
				{Name: "instance", Value: r.config.InstanceIP},
				{Name: "_target_", Value: r.config.ServiceName},
			}...)

			for k, v := range r.config.CustomLabels {
				labels = append(labels, promwrite.Label{Name: k, Value: v})
			}

			for i, name := range metric.FieldNames {
				if i < len(value.LabelValues) {
					labels = append(labels, promwrite.Label{Name: name, Value: value.LabelValues[i]})
				}
			}

			ts := promwrite.TimeSeries{
				Labels: labels,
				Sample: promwrite.Sample{
					Time:  now,
					Value: value.Value,
				},
			}

			result = append(result, ts)
		}
	}

	return result
}

// sanitizeName maps a metric name to a Prometheus-compatible one. Names in
// this library may use path separators ("/my/cpu/temperature").
func sanitizeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			if len(out) > 0 && out[len(out)-1] != '_' {
				out = append(out, '_')
			}
		}
	}
	// Trim a trailing separator left by a non-alphanumeric suffix
	if n := len(out); n > 0 && out[n-1] == '_' {
		out = out[:n-1]
	}
	return string(out)
}

// GetOutboundIPv4 gets the outbound IPv4 address of the local machine
func GetOutboundIPv4() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
