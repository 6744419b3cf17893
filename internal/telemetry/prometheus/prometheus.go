package prometheus

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Enabled bool
	Port    string
}

// Client registers counters and histograms lazily so that callers can emit
// dotted metric names without declaring them up front.
type Client struct {
	Config Config

	mu               sync.Mutex
	counterMetrics   map[string]prometheus.Counter
	histogramMetrics map[string]prometheus.Histogram
}

func Init(cfg Config) (*Client, error) {
	c := &Client{
		Config:           cfg,
		counterMetrics:   make(map[string]prometheus.Counter),
		histogramMetrics: make(map[string]prometheus.Histogram),
	}

	if cfg.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			http.ListenAndServe(":"+cfg.Port, mux)
		}()
	}

	return c, nil
}

// prometheus metric names cannot contain dots
func sanitize(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func (c *Client) Incr(name string, tags []string, rate float64) {
	if c == nil || !c.Config.Enabled {
		return
	}

	c.mu.Lock()
	counter, exists := c.counterMetrics[name]
	if !exists {
		counter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: sanitize(name),
		})
		prometheus.MustRegister(counter)
		c.counterMetrics[name] = counter
	}
	c.mu.Unlock()

	counter.Inc()
}

func (c *Client) Timing(name string, value time.Duration, tags []string, rate float64) {
	if c == nil || !c.Config.Enabled {
		return
	}

	c.mu.Lock()
	histogram, exists := c.histogramMetrics[name]
	if !exists {
		histogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: sanitize(name),
		})
		prometheus.MustRegister(histogram)
		c.histogramMetrics[name] = histogram
	}
	c.mu.Unlock()

	histogram.Observe(float64(value.Milliseconds()))
}
