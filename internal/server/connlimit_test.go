package server

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/combatsim/internal/config"
)

// step is one acquire, or a release of the oldest slot held by ip.
type step struct {
	ip      string
	release bool
	want    bool // acquire result; ignored for releases
}

func TestConnLimiter(t *testing.T) {
	const a, b, c, d = "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"

	tests := []struct {
		name  string
		cfg   config.WebSocketConfig
		steps []step
	}{
		{
			name: "per-IP cap",
			cfg:  config.WebSocketConfig{MaxPerIP: 2, MaxClients: 100},
			steps: []step{
				{ip: a, want: true},
				{ip: a, want: true},
				{ip: a, want: false},
				{ip: b, want: true},
				{ip: a, release: true},
				{ip: a, want: true},
			},
		},
		{
			name: "global cap",
			cfg:  config.WebSocketConfig{MaxPerIP: 10, MaxClients: 3},
			steps: []step{
				{ip: a, want: true},
				{ip: b, want: true},
				{ip: c, want: true},
				{ip: d, want: false},
				{ip: b, release: true},
				{ip: d, want: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewConnLimiter(tt.cfg)
			held := map[string][]func(){}
			for i, s := range tt.steps {
				if s.release {
					require.NotEmpty(t, held[s.ip], "step %d", i)
					held[s.ip][0]()
					held[s.ip] = held[s.ip][1:]
					continue
				}
				release, ok := l.Acquire(s.ip)
				require.Equal(t, s.want, ok, "step %d (%s)", i, s.ip)
				if ok {
					held[s.ip] = append(held[s.ip], release)
				}
			}
		})
	}
}

func TestConnLimiterReleaseIsIdempotent(t *testing.T) {
	l := NewConnLimiter(config.WebSocketConfig{MaxPerIP: 2, MaxClients: 2})
	first, ok := l.Acquire("10.0.0.1")
	require.True(t, ok)
	_, ok = l.Acquire("10.0.0.1")
	require.True(t, ok)

	first()
	first()
	total, addrs := l.Stats()
	assert.Equal(t, 1, total, "a second release must not free the other slot")
	assert.Equal(t, 1, addrs)
}

func TestConnLimiterZeroMeansUnlimited(t *testing.T) {
	l := NewConnLimiter(config.WebSocketConfig{})
	for i := 0; i < 100; i++ {
		_, ok := l.Acquire("10.0.0.1")
		assert.True(t, ok)
	}
	total, addrs := l.Stats()
	assert.Equal(t, 100, total)
	assert.Equal(t, 1, addrs)
}

func TestConnLimiterConcurrent(t *testing.T) {
	cfg := config.DefaultConfig().Server.WebSocket
	l := NewConnLimiter(cfg)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ip := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}[i%5]
			if _, ok := l.Acquire(ip); ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// Five addresses at four each would be 20, but the global cap is lower.
	assert.Equal(t, cfg.MaxClients, accepted)
	total, _ := l.Stats()
	assert.Equal(t, cfg.MaxClients, total)
}

func TestHostOnly(t *testing.T) {
	tests := map[string]string{
		"192.168.1.1:12345": "192.168.1.1",
		"[::1]:12345":       "::1",
		"localhost:8080":    "localhost",
		"192.168.1.1":       "192.168.1.1",
	}
	for input, want := range tests {
		assert.Equal(t, want, hostOnly(input), input)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded chain uses first hop", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, "10.0.0.1:1", "203.0.113.50"},
		{"real ip header", map[string]string{"X-Real-IP": " 203.0.113.7 "}, "10.0.0.1:1", "203.0.113.7"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.50", "X-Real-IP": "198.51.100.25"}, "10.0.0.1:1", "203.0.113.50"},
		{"blank first hop falls through", map[string]string{"X-Forwarded-For": " , 70.41.3.18"}, "192.168.1.100:54321", "192.168.1.100"},
		{"no headers", nil, "192.168.1.100:54321", "192.168.1.100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{RemoteAddr: tt.remoteAddr, Header: make(http.Header)}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientAddr(req))
		})
	}
}
