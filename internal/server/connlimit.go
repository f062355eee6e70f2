package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/lawnchairsociety/combatsim/internal/config"
)

// ConnLimiter caps progress subscribers per client address and overall.
// A zero limit means unlimited.
type ConnLimiter struct {
	maxPerIP, maxTotal int

	mu    sync.Mutex
	perIP map[string]int
	total int
}

func NewConnLimiter(cfg config.WebSocketConfig) *ConnLimiter {
	return &ConnLimiter{
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxClients,
		perIP:    make(map[string]int),
	}
}

// Acquire reserves a slot for ip. ok is false when either cap is reached.
// release hands the slot back; calls after the first do nothing.
func (c *ConnLimiter) Acquire(ip string) (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.total >= c.maxTotal {
		return nil, false
	}
	if c.maxPerIP > 0 && c.perIP[ip] >= c.maxPerIP {
		return nil, false
	}
	c.perIP[ip]++
	c.total++

	var once sync.Once
	return func() { once.Do(func() { c.release(ip) }) }, true
}

func (c *ConnLimiter) release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.perIP[ip]; n > 1 {
		c.perIP[ip] = n - 1
	} else {
		delete(c.perIP, ip)
	}
	c.total--
}

// Stats reports the number of held slots and of distinct addresses holding them.
func (c *ConnLimiter) Stats() (total, addrs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, len(c.perIP)
}

// hostOnly strips the port from an ip:port address.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// clientAddr identifies the subscriber behind r, trusting the leftmost
// X-Forwarded-For hop and then X-Real-IP when a proxy set them.
func clientAddr(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}
