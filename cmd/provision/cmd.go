package provision

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukcloud/grafana-provisioner/internal/cli"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	"github.com/ukcloud/grafana-provisioner/pkg/dashboard"
	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
	"github.com/ukcloud/grafana-provisioner/pkg/logger"
	"github.com/ukcloud/grafana-provisioner/pkg/metrics"
	"github.com/ukcloud/grafana-provisioner/pkg/provisioning"
)

type Options struct {
	*cli.Options
	SkipHealthCheck bool
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

// flag name per configuration key
var flags = []struct {
	name  string
	key   string
	usage string
}{
	{"datasource-delay", config.KeyDatasourceDelay, "Pause after each successfully created data source"},
	{"label-strategy", config.KeyLabelStrategy, "Strategy used to derive the cluster label from the data source URL"},
	{"http-timeout", config.KeyHTTPTimeout, "Timeout of a single Grafana API request (0 means no timeout)"},
	{"log-file", config.KeyLogFile, "Path of the log file"},
	{"templates-dir", config.KeyTemplatesDir, "Directory with dashboard templates overriding the built-in templates"},
	{"admin-dashboard", config.KeyAdminDashboard, "JSON or YAML file overriding the built-in admin dashboard"},
	{"metrics-file", config.KeyMetricsFile, "Write run metrics to this file (node-exporter textfile format)"},
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision Grafana data sources and dashboards",
		Long: "Create a Prometheus data source per customer cluster, a dashboard per customer " +
			"and import the admin dashboard into Grafana",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return BindFlags(cmd, o.Options)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cli.NewContext(), o, cmd.OutOrStdout())
		},
	}
	for _, flag := range flags {
		cmd.Flags().String(flag.name, "", flag.usage)
	}
	cmd.Flags().BoolVar(&o.SkipHealthCheck, "skip-health-check", false, "Don't query the Grafana health endpoint before provisioning")
	return cmd
}

// BindFlags binds the flags of the executed command to the configuration keys.
// Binding happens at execution time because several commands share the same keys.
func BindFlags(cmd *cobra.Command, o *cli.Options) error {
	for _, flag := range flags {
		pflag := cmd.Flags().Lookup(flag.name)
		if pflag == nil {
			continue
		}
		if err := o.Viper().BindPFlag(flag.key, pflag); err != nil {
			return errors.Wrapf(err, "failed to bind flag '%s'", flag.name)
		}
	}
	return nil
}

// Run executes one provisioning run. Only configuration and start-up failures are returned,
// failed Grafana calls are logged and listed in the report.
func Run(ctx context.Context, o *Options, out io.Writer) error {
	cfg, err := config.Load(o.Viper())
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	fileLogger, closeLog := logger.NewFileLogger(cfg.LogFile, o.Verbose)
	log := fileLogger.With("run-id", runID)
	o.SetLogger(log)
	defer func() {
		if err := closeLog(); err != nil {
			o.SetLogger(nil)
			o.Logger().Warnf("Failed to close log file '%s': %s", cfg.LogFile, err)
		}
	}()

	renderer, err := dashboard.NewRenderer(cfg.TemplatesDir, cfg.AdminDashboard)
	if err != nil {
		return err
	}

	client, err := grafana.NewClient(cfg.GrafanaURL, cfg.GrafanaAPIToken,
		grafana.WithLogger(log),
		grafana.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return err
	}

	if !o.SkipHealthCheck {
		checkHealth(ctx, o, client)
	}

	collector := metrics.NewProvisioningCollector()
	driver := provisioning.NewDriver(cfg, client, renderer,
		provisioning.WithLogger(log),
		provisioning.WithCollector(collector),
		provisioning.WithRunID(runID))
	report := driver.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := collector.WriteToTextfile(cfg.MetricsFile); err != nil {
			log.Warnf("Failed to write metrics file '%s': %s", cfg.MetricsFile, err)
		}
	}

	return printReport(o, report, out)
}

func checkHealth(ctx context.Context, o *Options, client *grafana.Client) {
	health, err := client.Health(ctx)
	if err != nil {
		o.Logger().Warnf("Grafana health check failed: %s", err)
		return
	}
	if err := health.CheckVersion(); err != nil {
		o.Logger().Warnf("Grafana version check failed: %s", err)
		return
	}
	o.Logger().Infof("Grafana %s is available (database: %s)", health.Version, health.Database)
}

func printReport(o *Options, report *provisioning.Report, out io.Writer) error {
	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("#", "Endpoint", "Subject", "Status", "Duration", "Error"); err != nil {
		return err
	}
	for idx, result := range report.Results {
		errMsg := ""
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
		if err := formatter.AddRow(strconv.Itoa(idx+1), result.Endpoint, result.Subject,
			result.Status(), result.Duration.String(), errMsg); err != nil {
			return err
		}
	}
	if err := formatter.Output(out); err != nil {
		return err
	}
	if o.OutputFormat == cli.FormatTable {
		_, err = fmt.Fprintf(out, "Run %s: %d requests, %d failed\n",
			report.RunID, len(report.Results), len(report.Failures()))
	}
	return err
}
