package searcher

import (
	"sync/atomic"
	"time"
)

// SearchMetrics summarizes one completed search.
type SearchMetrics struct {
	StartTime    time.Time
	Duration     time.Duration
	Nodes        int64
	Episodes     int64
	FullPlayouts int64
	Depth        int
}

// Collector records search progress. The atomic implementation is safe to
// share; NewNoCollector costs nothing when metrics are not wanted.
type Collector interface {
	Start()
	AddNode()
	AddEpisode()
	AddFullPlayout()
	SetDepth(depth int)
	Complete() SearchMetrics
}

type collector struct {
	startTime    time.Time
	nodes        atomic.Int64
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
	depth        atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start() {
	c.startTime = time.Now()
	c.nodes.Store(0)
	c.episodes.Store(0)
	c.fullPlayouts.Store(0)
	c.depth.Store(0)
}

func (c *collector) AddNode() {
	c.nodes.Add(1)
}

func (c *collector) AddEpisode() {
	c.episodes.Add(1)
}

func (c *collector) AddFullPlayout() {
	c.fullPlayouts.Add(1)
}

func (c *collector) SetDepth(depth int) {
	c.depth.Store(int64(depth))
}

func (c *collector) Complete() SearchMetrics {
	return SearchMetrics{
		StartTime:    c.startTime,
		Duration:     time.Since(c.startTime),
		Nodes:        c.nodes.Load(),
		Episodes:     c.episodes.Load(),
		FullPlayouts: c.fullPlayouts.Load(),
		Depth:        int(c.depth.Load()),
	}
}

type noCollector struct{}

func NewNoCollector() Collector {
	return noCollector{}
}

func (noCollector) Start()                  {}
func (noCollector) AddNode()                {}
func (noCollector) AddEpisode()             {}
func (noCollector) AddFullPlayout()         {}
func (noCollector) SetDepth(int)            {}
func (noCollector) Complete() SearchMetrics { return SearchMetrics{} }
