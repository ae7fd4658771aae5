package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/ukcloud/grafana-provisioner/pkg/cluster"
	e "github.com/ukcloud/grafana-provisioner/pkg/error"
	"gopkg.in/yaml.v3"
)

const (
	KeyDashboardSources = "dashboardSources"
	KeyGrafanaURL       = "grafanaUrl"
	KeyGrafanaAPIToken  = "grafanaApiToken"

	KeyDatasourceDelay = "datasourceDelay"
	KeyLabelStrategy   = "labelStrategy"
	KeyHTTPTimeout     = "httpTimeout"
	KeyLogFile         = "logFile"
	KeyTemplatesDir    = "templatesDir"
	KeyAdminDashboard  = "adminDashboard"
	KeyMetricsFile     = "metricsFile"

	// structured dashboardSources of the configuration file, with original key case and order
	keyDashboardSourcesDocument = "dashboardSourcesDocument"

	DefaultDatasourceDelay = time.Second
	DefaultLogFile         = "grafana_setup.log"
)

// env names per key: the first one is the current name, the following ones are legacy names
var envNames = map[string][]string{
	KeyDashboardSources: {"DASHBOARD_SOURCES", "OPENSHIFT_SECRET"},
	KeyGrafanaURL:       {"GRAFANA_URL", "GRAFANA_HOST"},
	KeyGrafanaAPIToken:  {"GRAFANA_API_TOKEN", "GRAFANA_API_KEY"},
	KeyDatasourceDelay:  {"DATASOURCE_DELAY"},
	KeyLabelStrategy:    {"LABEL_STRATEGY"},
	KeyHTTPTimeout:      {"HTTP_TIMEOUT"},
	KeyLogFile:          {"LOG_FILE"},
	KeyTemplatesDir:     {"TEMPLATES_DIR"},
	KeyAdminDashboard:   {"ADMIN_DASHBOARD"},
	KeyMetricsFile:      {"METRICS_FILE"},
}

// dashboardSources is required as well but can be structured, LoadCustomers checks it
var requiredKeys = []string{KeyGrafanaAPIToken, KeyGrafanaURL}

type Config struct {
	GrafanaURL      string
	GrafanaAPIToken string
	Customers       CustomerMap

	DatasourceDelay time.Duration
	LabelStrategy   cluster.Strategy
	HTTPTimeout     time.Duration
	LogFile         string
	TemplatesDir    string
	AdminDashboard  string
	MetricsFile     string
}

func (c *Config) String() string {
	return fmt.Sprintf("Config: grafanaUrl=%s customers=%d clusters=%d labelStrategy=%s datasourceDelay=%s",
		c.GrafanaURL, len(c.Customers), c.Customers.ClusterCount(), c.LabelStrategy, c.DatasourceDelay)
}

// BindEnv registers the environment variable names and the defaults of all settings.
func BindEnv(v *viper.Viper) error {
	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	v.SetDefault(KeyDatasourceDelay, DefaultDatasourceDelay)
	v.SetDefault(KeyLabelStrategy, string(cluster.Auto))
	v.SetDefault(KeyHTTPTimeout, time.Duration(0))
	v.SetDefault(KeyLogFile, DefaultLogFile)
	return nil
}

// Load builds the configuration of a provisioning run. It fails with a *ConfigurationError
// if a required setting is missing or a setting cannot be parsed.
func Load(v *viper.Viper) (*Config, error) {
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, &e.ConfigurationError{
				Reason: e.ReasonMissing,
				Key:    key,
				Err:    fmt.Errorf("set environment variable %s", envNames[key][0]),
			}
		}
	}

	customers, strategy, err := LoadCustomers(v)
	if err != nil {
		return nil, err
	}

	grafanaURL, err := normalizeURL(v.GetString(KeyGrafanaURL))
	if err != nil {
		return nil, &e.ConfigurationError{Reason: e.ReasonInvalid, Key: KeyGrafanaURL, Err: err}
	}

	delay, err := duration(v, KeyDatasourceDelay)
	if err != nil {
		return nil, err
	}
	timeout, err := duration(v, KeyHTTPTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		GrafanaURL:      grafanaURL,
		GrafanaAPIToken: strings.TrimSpace(v.GetString(KeyGrafanaAPIToken)),
		Customers:       customers,
		DatasourceDelay: delay,
		LabelStrategy:   strategy,
		HTTPTimeout:     timeout,
		LogFile:         v.GetString(KeyLogFile),
		TemplatesDir:    v.GetString(KeyTemplatesDir),
		AdminDashboard:  v.GetString(KeyAdminDashboard),
		MetricsFile:     v.GetString(KeyMetricsFile),
	}, nil
}

// LoadCustomers reads only the customer map and the label strategy, it is sufficient for offline rendering.
// The customer map is either a YAML string (env-var) or a structured value of the configuration file.
func LoadCustomers(v *viper.Viper) (CustomerMap, cluster.Strategy, error) {
	raw, err := dashboardSources(v)
	if err != nil {
		return nil, "", &e.ConfigurationError{Reason: e.ReasonInvalid, Key: KeyDashboardSources, Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, "", &e.ConfigurationError{
			Reason: e.ReasonMissing,
			Key:    KeyDashboardSources,
			Err:    fmt.Errorf("set environment variable %s", envNames[KeyDashboardSources][0]),
		}
	}
	customers, err := ParseCustomers(raw)
	if err != nil {
		return nil, "", &e.ConfigurationError{Reason: e.ReasonInvalid, Key: KeyDashboardSources, Err: err}
	}
	strategy, err := cluster.ParseStrategy(v.GetString(KeyLabelStrategy))
	if err != nil {
		return nil, "", &e.ConfigurationError{Reason: e.ReasonInvalid, Key: KeyLabelStrategy, Err: err}
	}
	return customers, strategy, nil
}

// PreserveDashboardSources keeps the structured dashboardSources value of a YAML or JSON configuration
// file as YAML document. Viper lower-cases the keys of nested maps, which would change customer names
// and lose their order.
func PreserveDashboardSources(v *viper.Viper, configFile []byte) error {
	doc := &yaml.Node{}
	if err := yaml.Unmarshal(configFile, doc); err != nil {
		return err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if !strings.EqualFold(root.Content[i].Value, KeyDashboardSources) {
			continue
		}
		value := root.Content[i+1]
		if value.Kind != yaml.MappingNode && value.Kind != yaml.SequenceNode {
			return nil
		}
		preserved, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		v.Set(keyDashboardSourcesDocument, string(preserved))
		return nil
	}
	return nil
}

func dashboardSources(v *viper.Viper) (string, error) {
	switch typed := v.Get(KeyDashboardSources).(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case []byte:
		return string(typed), nil
	default:
		if preserved := v.GetString(keyDashboardSourcesDocument); preserved != "" {
			return preserved, nil
		}
		marshalled, err := yaml.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(marshalled), nil
	}
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.Get(key)
	var value time.Duration
	switch typed := raw.(type) {
	case time.Duration:
		value = typed
	case string:
		parsed, err := time.ParseDuration(typed)
		if err != nil {
			return 0, &e.ConfigurationError{Reason: e.ReasonInvalid, Key: key, Err: err}
		}
		value = parsed
	default:
		value = v.GetDuration(key)
	}
	if value < 0 {
		return 0, &e.ConfigurationError{Reason: e.ReasonInvalid, Key: key, Err: fmt.Errorf("duration must not be negative")}
	}
	return value, nil
}

// normalizeURL accepts a bare host name (legacy GRAFANA_HOST) and defaults its scheme to https
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL '%s' has no host", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}
