package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/ukcloud/grafana-provisioner/internal/cli"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	"github.com/ukcloud/grafana-provisioner/pkg/grafana"
	"github.com/ukcloud/grafana-provisioner/pkg/test"
)

func TestProvisionIntegration(t *testing.T) {
	test.IntegrationTest(t)

	o := NewOptions(cli.NewOptions())
	o.OutputFormat = cli.FormatYAML
	require.NoError(t, cli.InitViper(o.Options))
	require.NotEmpty(t, os.Getenv("GRAFANA_URL"), "GRAFANA_URL is required for integration tests")
	require.NotEmpty(t, os.Getenv("GRAFANA_API_TOKEN"), "GRAFANA_API_TOKEN is required for integration tests")

	//unique customer name: data sources of previous runs would answer with a conflict
	customer := fmt.Sprintf("it-%s", uuid.NewString()[:8])
	o.Viper().Set(config.KeyDashboardSources, fmt.Sprintf(`
Customers:
  %s:
    - ClusterDataSourceUrl: https://prometheus.1234-567890.reg00001-1.cna.ukcloud.com/
      BasicAuthUsername: it-user
      BasicAuthPassword: it-pwd
`, customer))
	o.Viper().Set(config.KeyDatasourceDelay, "1s")
	o.Viper().Set(config.KeyLogFile, filepath.Join(t.TempDir(), "grafana_setup.log"))

	cfg, err := config.Load(o.Viper())
	require.NoError(t, err)
	client, err := grafana.NewClient(cfg.GrafanaURL, cfg.GrafanaAPIToken)
	require.NoError(t, err)
	health, err := client.Health(context.Background())
	require.NoError(t, err)
	require.NoError(t, health.CheckVersion())
	require.NoError(t, client.Close())

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), o, &out))
	require.NotContains(t, out.String(), "failed")
}
