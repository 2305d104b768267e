package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes every cell in a registry as a Prometheus gauge, one
// time series per cell labelled with the cell name. It implements
// prometheus.Collector and is registered with a metrics registry the usual
// way:
//
//	prometheus.MustRegister(registry.NewCollector(reg))
type Collector struct {
	registry  *Registry
	valueDesc *prometheus.Desc
	cellsDesc *prometheus.Desc
}

// NewCollector creates a collector reading from reg.
func NewCollector(reg *Registry) *Collector {
	return &Collector{
		registry: reg,
		valueDesc: prometheus.NewDesc(
			"atomic32_cell_value",
			"Current value of a named atomic cell",
			[]string{"name"},
			nil,
		),
		cellsDesc: prometheus.NewDesc(
			"atomic32_cells",
			"Number of cells in the registry",
			nil,
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.valueDesc
	ch <- c.cellsDesc
}

// Collect implements prometheus.Collector. Values are read atomically at
// scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.registry.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.cellsDesc, prometheus.GaugeValue, float64(len(snapshot)))
	for name, value := range snapshot {
		ch <- prometheus.MustNewConstMetric(c.valueDesc, prometheus.GaugeValue, float64(value), name)
	}
}
