// Package promexport adapts a metrics.Metrics core to the Prometheus
// collector interface so a daemon's counters can be scraped alongside
// everything else in a process.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jrepp/duende/pkg/metrics"
)

// Collector exports one daemon's Metrics as Prometheus gauges/counters
// under namespace "duende", labeled by daemon name.
type Collector struct {
	m          *metrics.Metrics
	daemonName string

	requestsTotal     *prometheus.Desc
	errorsTotal       *prometheus.Desc
	errorRate         *prometheus.Desc
	avgDurationMs     *prometheus.Desc
	maxDurationMs     *prometheus.Desc
	requestsPerSecond *prometheus.Desc
	circuitTrips      *prometheus.Desc
	circuitRecoveries *prometheus.Desc
	cpuPercent        *prometheus.Desc
	memoryBytes       *prometheus.Desc
	openFDs           *prometheus.Desc
	threadCount       *prometheus.Desc
}

// NewCollector builds a Collector for m, labeled with daemonName.
func NewCollector(daemonName string, m *metrics.Metrics) *Collector {
	labels := []string{"daemon"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("duende_"+name, help, labels, nil)
	}
	return &Collector{
		m:                 m,
		daemonName:        daemonName,
		requestsTotal:     desc("requests_total", "Total requests handled by the daemon."),
		errorsTotal:       desc("errors_total", "Total errors recorded by the daemon."),
		errorRate:         desc("error_rate", "Errors divided by requests."),
		avgDurationMs:     desc("average_duration_ms", "Average recorded duration in milliseconds."),
		maxDurationMs:     desc("max_duration_ms", "Maximum recorded duration in milliseconds."),
		requestsPerSecond: desc("requests_per_second", "Requests per second since creation."),
		circuitTrips:      desc("circuit_trips_total", "Total circuit breaker trips."),
		circuitRecoveries: desc("circuit_recoveries_total", "Total circuit breaker recoveries."),
		cpuPercent:        desc("cpu_percent", "Last-observed CPU percent."),
		memoryBytes:       desc("memory_bytes", "Last-observed resident memory in bytes."),
		openFDs:           desc("open_fds", "Last-observed open file descriptor count."),
		threadCount:       desc("thread_count", "Last-observed OS thread count."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requestsTotal
	ch <- c.errorsTotal
	ch <- c.errorRate
	ch <- c.avgDurationMs
	ch <- c.maxDurationMs
	ch <- c.requestsPerSecond
	ch <- c.circuitTrips
	ch <- c.circuitRecoveries
	ch <- c.cpuPercent
	ch <- c.memoryBytes
	ch <- c.openFDs
	ch <- c.threadCount
}

// Collect implements prometheus.Collector, taking one Snapshot per scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.requestsTotal, prometheus.CounterValue, float64(s.RequestsTotal), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.errorsTotal, prometheus.CounterValue, float64(s.ErrorsTotal), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.errorRate, prometheus.GaugeValue, s.ErrorRate, c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.avgDurationMs, prometheus.GaugeValue, s.AverageDurationMs, c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.maxDurationMs, prometheus.GaugeValue, s.MaxDurationMs, c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.requestsPerSecond, prometheus.GaugeValue, s.RequestsPerSecond, c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.circuitTrips, prometheus.CounterValue, float64(s.CircuitTrips), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.circuitRecoveries, prometheus.CounterValue, float64(s.CircuitRecoveries), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.cpuPercent, prometheus.GaugeValue, s.CPUPercent, c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.memoryBytes, prometheus.GaugeValue, float64(s.MemoryBytes), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.openFDs, prometheus.GaugeValue, float64(s.OpenFDs), c.daemonName)
	ch <- prometheus.MustNewConstMetric(c.threadCount, prometheus.GaugeValue, float64(s.ThreadCount), c.daemonName)
}

var _ prometheus.Collector = (*Collector)(nil)
