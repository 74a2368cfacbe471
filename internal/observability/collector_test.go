package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoop(demo config.Demonstration) *sim.Loop {
	params := scene.NewParameterStore(demo, config.DefaultSolver())
	return sim.NewLoop(params, physics.NewWorld(), present.NewWorld(), nil)
}

func TestCollectorTracksFrames(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)

	demo := config.DefaultDemonstration()
	demo.EnableTracing = true
	loop := newLoop(demo)
	loop.AddObserver(c)

	_, err = loop.Run(context.Background(), 5, config.DefaultDt)
	require.NoError(t, err)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.restarts))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.markers))
	assert.Equal(t, float64(loop.Registry().Len()), testutil.ToFloat64(c.entities))
	assert.Equal(t, 1, testutil.CollectAndCount(c.tickDuration))

	loop.Surface().Restart()
	_, err = loop.Tick(context.Background(), config.DefaultDt, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.restarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.markers))
}

func TestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	require.NoError(t, err)
	b, err := NewCollector(reg)
	require.NoError(t, err)

	a.OnFrame(sim.Frame{})
	b.OnFrame(sim.Frame{})
	assert.Equal(t, 2.0, testutil.ToFloat64(a.ticks))
}

func TestCollectorHandler(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	c.OnFrame(sim.Frame{Restarted: true, CableError: 0.25})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "pulleysim_restarts_total 1"), text)
	assert.True(t, strings.Contains(text, "pulleysim_cable_error 0.25"), text)
}
