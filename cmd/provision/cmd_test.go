package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ukcloud/grafana-provisioner/internal/cli"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	e "github.com/ukcloud/grafana-provisioner/pkg/error"
	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
	"github.com/ukcloud/grafana-provisioner/pkg/test"
)

const dashboardSources = `
Customers:
  zeta:
    - ClusterDataSourceUrl: https://prometheus.1234-567890.reg00001-1.cna.ukcloud.com/
      BasicAuthUsername: zeta-user
      BasicAuthPassword: zeta-pwd
  acme:
    - ClusterDataSourceUrl: https://prometheus.3234-567890.reg00002-1.cna.ukcloud.com/
      BasicAuthUsername: acme-user
      BasicAuthPassword: acme-pwd
`

func newOptions(t *testing.T, grafanaURL string, format string) *Options {
	o := NewOptions(cli.NewOptions())
	o.OutputFormat = format
	require.NoError(t, cli.InitViper(o.Options))

	v := o.Viper()
	v.Set(config.KeyDashboardSources, dashboardSources)
	v.Set(config.KeyGrafanaURL, grafanaURL)
	v.Set(config.KeyGrafanaAPIToken, "token")
	v.Set(config.KeyDatasourceDelay, "0s")
	v.Set(config.KeyLogFile, filepath.Join(t.TempDir(), "grafana_setup.log"))
	return o
}

func TestRun(t *testing.T) {
	t.Run("Provision against Grafana", func(t *testing.T) {
		fakeGrafana := test.NewFakeGrafana(t)
		o := newOptions(t, fakeGrafana.URL, cli.FormatJSON)
		metricsFile := filepath.Join(t.TempDir(), "provisioner.prom")
		o.Viper().Set(config.KeyMetricsFile, metricsFile)

		var out bytes.Buffer
		require.NoError(t, Run(context.Background(), o, &out))

		require.Len(t, fakeGrafana.RequestsTo(grafana.EndpointHealth), 1)
		require.Len(t, fakeGrafana.RequestsTo(grafana.EndpointDatasources), 2)
		require.Len(t, fakeGrafana.RequestsTo(grafana.EndpointDashboards), 2)
		require.Len(t, fakeGrafana.RequestsTo(grafana.EndpointDashboardImport), 1)

		var rows []map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
		require.Len(t, rows, 5)
		require.Equal(t, "zeta-1234-567890.reg00001-1.cna.ukcloud.com", rows[0]["subject"])
		for _, row := range rows {
			require.Equal(t, "success", row["status"])
		}

		metrics, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		require.Contains(t, string(metrics), "grafana_provisioner_requests_total")

		logs, err := os.ReadFile(o.Viper().GetString(config.KeyLogFile))
		require.NoError(t, err)
		require.Contains(t, string(logs), "run-id")
		require.NotContains(t, string(logs), "zeta-pwd")
	})

	t.Run("Failing Grafana calls do not fail the run", func(t *testing.T) {
		fakeGrafana := test.NewFakeGrafana(t)
		fakeGrafana.FailPath(grafana.EndpointDatasources, http.StatusInternalServerError)
		fakeGrafana.FailPath(grafana.EndpointHealth, http.StatusServiceUnavailable)
		o := newOptions(t, fakeGrafana.URL, cli.FormatTable)

		var out bytes.Buffer
		require.NoError(t, Run(context.Background(), o, &out))
		require.Contains(t, out.String(), "5 requests, 2 failed")
	})

	t.Run("Skip health check", func(t *testing.T) {
		fakeGrafana := test.NewFakeGrafana(t)
		o := newOptions(t, fakeGrafana.URL, cli.FormatYAML)
		o.SkipHealthCheck = true

		require.NoError(t, Run(context.Background(), o, &bytes.Buffer{}))
		require.Empty(t, fakeGrafana.RequestsTo(grafana.EndpointHealth))
		require.Len(t, fakeGrafana.Requests(), 5)
	})

	t.Run("Missing configuration aborts before any request", func(t *testing.T) {
		fakeGrafana := test.NewFakeGrafana(t)
		o := newOptions(t, fakeGrafana.URL, cli.FormatTable)
		o.Viper().Set(config.KeyGrafanaAPIToken, "")

		err := Run(context.Background(), o, &bytes.Buffer{})
		require.Error(t, err)
		require.True(t, e.IsConfigurationError(err))
		require.Empty(t, fakeGrafana.Requests())
	})

	t.Run("Broken admin dashboard aborts before any request", func(t *testing.T) {
		fakeGrafana := test.NewFakeGrafana(t)
		o := newOptions(t, fakeGrafana.URL, cli.FormatTable)
		o.Viper().Set(config.KeyAdminDashboard, filepath.Join(t.TempDir(), "missing.json"))

		require.Error(t, Run(context.Background(), o, &bytes.Buffer{}))
		require.Empty(t, fakeGrafana.Requests())
	})
}

func TestCmdFlags(t *testing.T) {
	fakeGrafana := test.NewFakeGrafana(t)
	o := newOptions(t, fakeGrafana.URL, cli.FormatJSON)
	cmd := NewCmd(o)
	require.NoError(t, cmd.Flags().Set("label-strategy", "host-suffix"))
	require.NoError(t, cmd.Flags().Set("skip-health-check", "true"))
	require.NoError(t, BindFlags(cmd, o.Options))

	cfg, err := config.Load(o.Viper())
	require.NoError(t, err)
	require.Equal(t, "host-suffix", string(cfg.LabelStrategy))
	require.True(t, o.SkipHealthCheck)
}
