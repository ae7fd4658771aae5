package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	"github.com/ukcloud/grafana-provisioner/pkg/dashboard"
	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
	"github.com/ukcloud/grafana-provisioner/pkg/metrics"
	"go.uber.org/zap"
)

const adminSubject = "admin"

type DashboardRenderer interface {
	RenderCustomerDashboard(datasourceInfo []dashboard.DatasourceInfo, customer string) (string, error)
	RenderAdminDashboard() (string, error)
}

type SleepFunc func(ctx context.Context, d time.Duration)

type Option func(*Driver)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

func WithCollector(collector *metrics.ProvisioningCollector) Option {
	return func(d *Driver) {
		d.collector = collector
	}
}

func WithSleepFunc(sleep SleepFunc) Option {
	return func(d *Driver) {
		d.sleep = sleep
	}
}

func WithRunID(runID string) Option {
	return func(d *Driver) {
		d.runID = runID
	}
}

// Driver provisions data sources and dashboards for all customers of the configuration,
// strictly sequential and without aborting on failed API calls.
type Driver struct {
	cfg       *config.Config
	client    grafana.Requester
	renderer  DashboardRenderer
	logger    *zap.SugaredLogger
	collector *metrics.ProvisioningCollector
	sleep     SleepFunc
	runID     string
}

func NewDriver(cfg *config.Config, client grafana.Requester, renderer DashboardRenderer, opts ...Option) *Driver {
	d := &Driver{
		cfg:       cfg,
		client:    client,
		renderer:  renderer,
		logger:    zap.NewNop().Sugar(),
		collector: metrics.NewProvisioningCollector(),
		sleep:     wait,
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one provisioning run. Failures are logged and recorded in the report, they never abort the run.
// The client is closed when Run returns.
func (d *Driver) Run(ctx context.Context) *Report {
	report := &Report{RunID: d.runID, Start: time.Now()}
	defer func() {
		if err := d.client.Close(); err != nil {
			d.logger.Warnf("Failed to close Grafana client: %s", err)
		}
		report.End = time.Now()
		d.collector.OnRunFinished(report.Start, report.End)
		d.logger.Infof("Provisioning run finished in %s: %d requests, %d failed",
			report.End.Sub(report.Start), len(report.Results), len(report.Failures()))
	}()

	d.logger.Infof("Provisioning run started: %s", d.cfg)
	for _, customer := range d.cfg.Customers {
		d.provisionCustomer(ctx, customer, report)
	}
	d.provisionAdminDashboard(ctx, report)

	return report
}

func (d *Driver) provisionCustomer(ctx context.Context, customer config.Customer, report *Report) {
	datasourceInfo := DatasourceInfo(customer, d.cfg.LabelStrategy)

	for idx, clusterSpec := range customer.Clusters {
		info := datasourceInfo[idx]
		d.logger.Debugf("Creating data source for customer: %s cluster: %s", customer.Name, info.Label)
		registration := NewDataSourceRegistration(info.Name, clusterSpec)
		result := d.client.Do(ctx, grafana.EndpointDatasources, http.MethodPost, registration).WithSubject(info.Name)
		result.Payload = registration.Masked()
		d.record(report, result)

		if result.Failed() {
			d.logger.Errorw("Failed to create Grafana data source",
				"endpoint", result.Endpoint,
				"payload", toJSON(result.Payload),
				"error", result.Err)
			continue
		}
		d.logger.Debugw("Created Grafana data source",
			"datasource", clusterSpec.DataSourceURL,
			"response", toJSON(result.Response))
		//give Grafana time to persist the data source, otherwise it can answer the next creation with a conflict
		d.sleep(ctx, d.cfg.DatasourceDelay)
	}

	body, err := d.renderer.RenderCustomerDashboard(datasourceInfo, customer.Name)
	if err != nil {
		d.logger.Errorw("Failed to render Grafana dashboard", "customer", customer.Name, "error", err)
		d.record(report, grafana.Result{
			Method:   http.MethodPost,
			Endpoint: grafana.EndpointDashboards,
			Subject:  customer.Name,
			Err:      err,
		})
		return
	}

	result := d.client.Do(ctx, grafana.EndpointDashboards, http.MethodPost, body).WithSubject(customer.Name)
	d.record(report, result)
	if result.Failed() {
		d.logger.Errorw("Failed to create Grafana dashboard",
			"endpoint", result.Endpoint,
			"payload", body,
			"error", result.Err)
		return
	}
	d.logger.Debugw("Created Grafana dashboard",
		"dashboard", customer.Name,
		"response", toJSON(result.Response))
}

func (d *Driver) provisionAdminDashboard(ctx context.Context, report *Report) {
	body, err := d.renderer.RenderAdminDashboard()
	if err != nil {
		d.logger.Errorw("Failed to render Grafana admin dashboard", "error", err)
		d.record(report, grafana.Result{
			Method:   http.MethodPost,
			Endpoint: grafana.EndpointDashboardImport,
			Subject:  adminSubject,
			Err:      err,
		})
		return
	}

	result := d.client.Do(ctx, grafana.EndpointDashboardImport, http.MethodPost, body).WithSubject(adminSubject)
	d.record(report, result)
	if result.Failed() {
		d.logger.Errorw("Failed to import Grafana admin dashboard",
			"endpoint", result.Endpoint,
			"payload", body,
			"error", result.Err)
		return
	}
	d.logger.Debugw("Imported Grafana admin dashboard", "response", toJSON(result.Response))
}

func (d *Driver) record(report *Report, result grafana.Result) {
	report.Results = append(report.Results, result)
	d.collector.OnResult(result)
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func toJSON(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
