package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRobotsPolicyDisabled(t *testing.T) {
	policy := NewRobotsPolicy(false, "extractify-test", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), "https://example.com/anything"))
}

func TestRobotsEnforcerHonorsDisallow(t *testing.T) {
	var robotsFetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	policy := NewRobotsPolicy(true, "extractify-test", zap.NewNop())

	require.True(t, policy.Allowed(ctx, srv.URL+"/public"))
	require.False(t, policy.Allowed(ctx, srv.URL+"/private/page"))
	require.True(t, policy.Allowed(ctx, srv.URL+"/public/other"))

	// One ruleset fetch per host, served from cache afterwards.
	require.Equal(t, int32(1), robotsFetches.Load())
}

func TestRobotsEnforcerFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	// Close immediately so the robots fetch errors out.
	srv.Close()

	policy := NewRobotsPolicy(true, "extractify-test", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), srv.URL+"/page"))
}
