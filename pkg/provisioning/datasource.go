package provisioning

import (
	"github.com/ukcloud/grafana-provisioner/pkg/cluster"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	"github.com/ukcloud/grafana-provisioner/pkg/dashboard"
)

const (
	datasourceType   = "prometheus"
	datasourceAccess = "proxy"
	maskedPassword   = "******"
)

// DataSourceRegistration is the body of a data source creation request.
type DataSourceRegistration struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	URL               string `json:"url"`
	Access            string `json:"access"`
	BasicAuth         bool   `json:"basicAuth"`
	BasicAuthUser     string `json:"basicAuthUser"`
	BasicAuthPassword string `json:"basicAuthPassword"`
	IsDefault         bool   `json:"isDefault"`
}

func NewDataSourceRegistration(name string, spec config.ClusterSpec) *DataSourceRegistration {
	return &DataSourceRegistration{
		Name:              name,
		Type:              datasourceType,
		URL:               spec.DataSourceURL,
		Access:            datasourceAccess,
		BasicAuth:         true,
		BasicAuthUser:     spec.BasicAuthUsername,
		BasicAuthPassword: spec.BasicAuthPassword,
		IsDefault:         false,
	}
}

// Masked returns a copy which is safe to be logged.
func (d DataSourceRegistration) Masked() DataSourceRegistration {
	if d.BasicAuthPassword != "" {
		d.BasicAuthPassword = maskedPassword
	}
	return d
}

// DatasourceInfo derives name and label of the data source of every cluster, in cluster order.
func DatasourceInfo(customer config.Customer, strategy cluster.Strategy) []dashboard.DatasourceInfo {
	info := make([]dashboard.DatasourceInfo, 0, len(customer.Clusters))
	for _, clusterSpec := range customer.Clusters {
		label := strategy.Label(clusterSpec.DataSourceURL)
		info = append(info, dashboard.DatasourceInfo{
			Name:  cluster.DatasourceName(customer.Name, label),
			Label: label,
		})
	}
	return info
}
