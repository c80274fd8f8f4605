package monitoring

import (
	"sync"
	"time"

	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var eventLatencyHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tso",
		Subsystem: "monitoring",
		Name:      "event_latency_seconds",
		Help:      "Latency of pipeline events by timer name.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20),
	}, []string{"timer"})

func init() {
	prometheus.MustRegister(eventLatencyHistogram)
}

// Context carries per-event latency timers through the processing pipeline.
// Timers are named, started by the producer and stopped by the consumer, and
// flushed to metrics by Publish. Publishing is best effort and never affects
// event processing.
type Context struct {
	mu      sync.Mutex
	started map[string]time.Time
	elapsed map[string]time.Duration
}

func NewContext() *Context {
	return &Context{
		started: make(map[string]time.Time),
		elapsed: make(map[string]time.Duration),
	}
}

// TimerStart begins the named timer, replacing any unstopped instance.
func (c *Context) TimerStart(name string) {
	c.mu.Lock()
	c.started[name] = time.Now()
	c.mu.Unlock()
}

// TimerStop records the elapsed time of the named timer. Stopping a timer
// that was never started is logged and ignored.
func (c *Context) TimerStop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, ok := c.started[name]
	if !ok {
		log.Warn("stopping timer that was never started", zap.String("timer", name))
		return
	}
	delete(c.started, name)
	c.elapsed[name] = time.Since(start)
}

// Publish flushes all stopped timers to the latency histogram and resets the
// context for reuse.
func (c *Context) Publish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, d := range c.elapsed {
		eventLatencyHistogram.WithLabelValues(name).Observe(d.Seconds())
		delete(c.elapsed, name)
	}
}
