package engine

import (
	"time"

	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/graph"
	"github.com/phrazzld/lexis/internal/layout"
	"github.com/phrazzld/lexis/internal/viewport"
)

// Default session tunables.
const (
	DefaultChoiceCount    = 4
	DefaultLayoutTicks    = 300
	DefaultCharge         = 300.0
	DefaultViewportWidth  = 1280.0
	DefaultViewportHeight = 800.0
	DefaultEventHistory   = 64
	DefaultPrefetch       = 4
)

// Config holds the tunables of a Session.
type Config struct {
	Graph            graph.Config
	Viewport         viewport.Config
	GravityThreshold float64
	CacheTTL         time.Duration
	MemoryCacheSize  int
	Workers          int
	QueueSize        int
	TaskTimeout      time.Duration
	ChoiceCount      int
	LayoutTicks      int
	// ExamplePrefetch caps how many examples of the head word's edges are
	// generated in the background once a graph is ready. Zero disables it.
	ExamplePrefetch int
}

// DefaultConfig returns the stock session tunables.
func DefaultConfig() Config {
	return Config{
		Graph:            graph.DefaultConfig(),
		Viewport:         viewport.DefaultConfig(),
		GravityThreshold: layout.DefaultThreshold,
		CacheTTL:         cache.DefaultTTL,
		MemoryCacheSize:  cache.DefaultMemorySize,
		Workers:          2,
		QueueSize:        16,
		TaskTimeout:      2 * time.Minute,
		ChoiceCount:      DefaultChoiceCount,
		LayoutTicks:      DefaultLayoutTicks,
		ExamplePrefetch:  DefaultPrefetch,
	}
}

// ConfigFrom maps application configuration onto session tunables.
func ConfigFrom(cfg *config.Config) Config {
	c := DefaultConfig()
	s := cfg.Session
	c.Graph = graph.Config{
		ContextSize:      s.ContextSize,
		TargetEdgeLimit:  s.TargetEdgeLimit,
		ContextEdgeLimit: s.ContextEdgeLimit,
		EdgeThreshold:    s.EdgeThreshold,
	}
	c.GravityThreshold = s.GravityThreshold
	c.CacheTTL = s.CacheTTL
	c.MemoryCacheSize = s.MemoryCacheSize
	c.Workers = s.Workers
	c.QueueSize = s.QueueSize
	c.ExamplePrefetch = s.ExamplePrefetch
	if cfg.LLM.Timeout > 0 {
		c.TaskTimeout = 2 * cfg.LLM.Timeout
	}
	c.Viewport = viewport.Config{
		Padding:           cfg.Viewport.Padding,
		ZoomMin:           cfg.Viewport.ZoomMin,
		ZoomMax:           cfg.Viewport.ZoomMax,
		SingleNodeMinZoom: cfg.Viewport.SingleNodeMinZoom,
		NodeRadius:        viewport.DefaultNodeRadius,
	}
	return c
}
