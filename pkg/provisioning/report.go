package provisioning

import (
	"time"

	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
)

// Report lists the outcome of every call of a provisioning run in call order.
type Report struct {
	RunID   string
	Start   time.Time
	End     time.Time
	Results []grafana.Result
}

func (r *Report) Failures() []grafana.Result {
	var failures []grafana.Result
	for _, result := range r.Results {
		if result.Failed() {
			failures = append(failures, result)
		}
	}
	return failures
}

func (r *Report) ResultsFor(endpoint string) []grafana.Result {
	var results []grafana.Result
	for _, result := range r.Results {
		if result.Endpoint == endpoint {
			results = append(results, result)
		}
	}
	return results
}
