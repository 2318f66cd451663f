package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// ServiceStatus is one upstream's health check result.
type ServiceStatus struct {
	Service   string `json:"service"`
	URL       string `json:"url"`
	Healthy   bool   `json:"healthy"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (g *Gateway) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   "api-gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckAll checks every upstream's /health concurrently.
func (g *Gateway) CheckAll(ctx context.Context) []ServiceStatus {
	services := g.table.Services()
	results := make([]ServiceStatus, len(services))

	var eg errgroup.Group
	for i, name := range services {
		i, name := i, name
		eg.Go(func() error {
			results[i] = g.check(ctx, name)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (g *Gateway) check(ctx context.Context, name string) ServiceStatus {
	target := g.upstreams[name].JoinPath("health").String()
	st := ServiceStatus{Service: name, URL: target}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	resp, err := g.client.Do(req)
	st.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	resp.Body.Close()

	st.Status = resp.StatusCode
	st.Healthy = resp.StatusCode < http.StatusBadRequest
	return st
}

func (g *Gateway) servicesHealth(c *gin.Context) {
	results := g.CheckAll(c.Request.Context())

	code := http.StatusOK
	for _, r := range results {
		if !r.Healthy {
			code = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, gin.H{"services": results})
}
