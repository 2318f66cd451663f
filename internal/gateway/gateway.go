package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"farmtally/internal/config"
)

const requestIDHeader = "X-Request-ID"

// Gateway forwards public API calls to the configured services.
type Gateway struct {
	table          *Table
	upstreams      map[string]*url.URL
	proxies        map[string]*httputil.ReverseProxy
	upstreamPrefix string
	timeout        time.Duration
	client         *http.Client
	Limiter        *Limiter
}

// New builds a gateway from settings. Every service named in routes must
// have a URL.
func New(s *config.Settings, routes []Route) (*Gateway, error) {
	g := &Gateway{
		table:          NewTable(routes),
		upstreams:      make(map[string]*url.URL),
		proxies:        make(map[string]*httputil.ReverseProxy),
		upstreamPrefix: s.UpstreamPrefix,
		timeout:        s.GatewayTimeout,
		client:         &http.Client{Timeout: 5 * time.Second},
		Limiter:        NewLimiter(s.RateLimitRequests, s.RateLimitWindow),
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: s.GatewayTimeout}).DialContext,
		ResponseHeaderTimeout: s.GatewayTimeout,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}

	for _, name := range g.table.Services() {
		raw, ok := s.ServiceURLs[name]
		if !ok || raw == "" {
			raw = s.DefaultServiceURL
		}
		target, err := url.Parse(raw)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid URL for service %s: %q", name, raw)
		}
		g.upstreams[name] = target
		g.proxies[name] = g.newProxy(name, target, transport)
	}
	return g, nil
}

func (g *Gateway) newProxy(service string, target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = rewritePath(pr.In.URL.Path, g.upstreamPrefix)
			pr.Out.URL.RawPath = ""
			pr.Out.Host = target.Host

			if prior, ok := pr.In.Header["X-Forwarded-For"]; ok {
				pr.Out.Header["X-Forwarded-For"] = prior
			}
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logrus.WithError(err).
				WithField("service", service).
				WithField("path", r.URL.Path).
				Error("upstream request failed")
			writeJSON(w, http.StatusServiceUnavailable, gin.H{
				"error":   "Service temporarily unavailable",
				"service": service,
			})
		},
	}
}

// Router returns the gin engine serving health checks and the proxy.
func (g *Gateway) Router(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.Use(RequestID())

	r.GET("/health", g.health)
	r.GET("/health/services", g.servicesHealth)

	r.NoRoute(RateLimit(g.Limiter), g.proxy)
	return r
}

func (g *Gateway) proxy(c *gin.Context) {
	route, ok := g.table.Match(c.Request.URL.Path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), g.timeout)
	defer cancel()
	g.proxies[route.Service].ServeHTTP(c.Writer, c.Request.WithContext(ctx))
}

// RequestID makes sure every request and response carries X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, id)
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
