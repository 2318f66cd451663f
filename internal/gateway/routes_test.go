package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableMatch(t *testing.T) {
	table := NewTable(DefaultRoutes)

	cases := []struct {
		path    string
		service string
		ok      bool
	}{
		{"/api/auth/login", "auth", true},
		{"/api/auth", "auth", true},
		{"/api/lorries/3/status", "lorry", true},
		{"/api/lorry-requests/7/approve", "lorry", true},
		{"/api/advance-payments", "payment", true},
		{"/api/dashboard/farm-admin", "farm-admin", true},
		{"/api/reports/deliveries.xlsx", "report", true},
		{"/api/lorriesX", "", false},
		{"/api/unknown", "", false},
		{"/health", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			r, ok := table.Match(tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.service, r.Service)
		})
	}
}

func TestTableLongestPrefixWins(t *testing.T) {
	table := NewTable([]Route{
		{Prefix: "/api/lorry", Service: "short"},
		{Prefix: "/api/lorry/requests", Service: "long"},
	})

	r, ok := table.Match("/api/lorry/requests/1")
	assert.True(t, ok)
	assert.Equal(t, "long", r.Service)

	r, ok = table.Match("/api/lorry/1")
	assert.True(t, ok)
	assert.Equal(t, "short", r.Service)
}

func TestServicesAreDistinct(t *testing.T) {
	services := NewTable(DefaultRoutes).Services()
	assert.Len(t, services, 10)
	assert.Contains(t, services, "lorry")
}

func TestRewritePath(t *testing.T) {
	assert.Equal(t, "/api/v1/auth/login", rewritePath("/api/auth/login", "/api/v1/"))
	assert.Equal(t, "/api/v1/farmers", rewritePath("/api/farmers", "/api/v1"))
	assert.Equal(t, "/farmers/2", rewritePath("/api/farmers/2", "/"))
}
