package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/starledger/internal/core/domain"
)

// SessionLister lists stored sessions.
type SessionLister interface {
	Sessions(ctx context.Context) ([]domain.SessionInfo, error)
}

// Collector reports the stored sessions of a history store on every
// scrape.
type Collector struct {
	store SessionLister

	sessions *prometheus.Desc
	commits  *prometheus.Desc
	lastDate *prometheus.Desc
	up       *prometheus.Desc
}

// NewCollector creates a collector over store.
func NewCollector(store SessionLister) *Collector {
	return &Collector{
		store: store,
		sessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "sessions"),
			"Sessions with at least one commit", nil, nil),
		commits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "commits"),
			"Commits stored per session", []string{"session"}, nil),
		lastDate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "last_date_days"),
			"Last committed game date per session, in days since 2200.01.01", []string{"session"}, nil),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "up"),
			"1 if the store could be read", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessions
	ch <- c.commits
	ch <- c.lastDate
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := c.store.Sessions(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(len(infos)))
	for _, info := range infos {
		ch <- prometheus.MustNewConstMetric(c.commits, prometheus.GaugeValue, float64(info.Commits), info.ID)
		ch <- prometheus.MustNewConstMetric(c.lastDate, prometheus.GaugeValue, float64(info.LastDate), info.ID)
	}
}
