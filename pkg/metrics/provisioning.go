package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
)

const (
	prometheusNamespace = "grafana"
	prometheusSubsystem = "provisioner"
)

// ProvisioningCollector provides the following metrics:
// - grafana_provisioner_requests_total{"endpoint", "result"} - Grafana API calls per endpoint and outcome
// - grafana_provisioner_run_duration_seconds - duration of the last provisioning run
// - grafana_provisioner_last_run_timestamp_seconds - end of the last provisioning run
type ProvisioningCollector struct {
	requests     *prometheus.CounterVec
	runDuration  prometheus.Gauge
	lastRunStamp prometheus.Gauge
}

func NewProvisioningCollector() *ProvisioningCollector {
	return &ProvisioningCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "requests_total",
			Help:      "Number of Grafana API requests by endpoint and result",
		}, []string{"endpoint", "result"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last provisioning run",
		}),
		lastRunStamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time when the last provisioning run finished",
		}),
	}
}

func (c *ProvisioningCollector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.runDuration.Describe(ch)
	c.lastRunStamp.Describe(ch)
}

func (c *ProvisioningCollector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.runDuration.Collect(ch)
	c.lastRunStamp.Collect(ch)
}

func (c *ProvisioningCollector) OnResult(result grafana.Result) {
	c.requests.WithLabelValues(result.Endpoint, result.Status()).Inc()
}

func (c *ProvisioningCollector) OnRunFinished(start, end time.Time) {
	c.runDuration.Set(end.Sub(start).Seconds())
	c.lastRunStamp.Set(float64(end.Unix()))
}

// WriteToTextfile stores the metrics in the format of the node-exporter textfile collector.
func (c *ProvisioningCollector) WriteToTextfile(file string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(file, registry)
}
