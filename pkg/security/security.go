package security

import (
	"net/http"
	"sync"
	"time"

	"editorial_composer/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS only echoes origins from the whitelist. "*" admits any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (originSet[origin] || originSet["*"]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin, Cache-Control, X-Requested-With, HX-Request, HX-Target, HX-Trigger, HX-Current-URL")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client IP.
type visitors struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	store map[string]*visitor
}

func newVisitors(maxRequests int, window time.Duration) *visitors {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &visitors{
		limit: rate.Every(window / time.Duration(maxRequests)),
		burst: maxRequests,
		store: make(map[string]*visitor),
	}
}

func (v *visitors) allow(key string, now time.Time) bool {
	v.mu.Lock()
	vis, ok := v.store[key]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.store[key] = vis
	}
	vis.lastSeen = now
	v.mu.Unlock()

	return vis.limiter.AllowN(now, 1)
}

// sweep drops visitors idle for longer than expiry.
func (v *visitors) sweep(now time.Time, expiry time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, vis := range v.store {
		if now.Sub(vis.lastSeen) > expiry {
			delete(v.store, ip)
		}
	}
}

// RateLimiter allows maxRequests per window for each client IP. Idle entries
// are swept every minute.
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	v := newVisitors(maxRequests, window)

	go func() {
		expiry := window * 3
		if expiry < time.Minute {
			expiry = time.Minute
		}
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			v.sweep(now, expiry)
		}
	}()

	return func(c *gin.Context) {
		if !v.allow(c.ClientIP(), time.Now()) {
			util.Error(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
