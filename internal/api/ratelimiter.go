package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the number of per-client buckets kept in memory.
const maxTrackedClients = 4096

type rateLimiter interface {
	Allow(client string) bool
}

// clientLimiter keeps one token bucket per client address. Buckets of clients
// that have not been seen recently are evicted.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	buckets, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &clientLimiter{
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
		buckets: buckets,
	}
}

func (l *clientLimiter) Allow(client string) bool {
	if l == nil || l.buckets == nil {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.buckets.Get(client)
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(client, bucket)
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// clientResolver derives the rate limit key of a request. X-Forwarded-For is
// honoured only when the peer is one of the trusted proxies; the key is then
// the nearest hop that is not itself a trusted proxy.
type clientResolver struct {
	trusted []netip.Prefix
}

func (c clientResolver) clientKey(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if len(c.trusted) == 0 || !c.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !c.isTrusted(hop) {
			return hop
		}
	}
	return peer
}

func (c clientResolver) isTrusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, resolver clientResolver, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(resolver.clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
