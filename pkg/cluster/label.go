package cluster

import (
	"fmt"
	"net/url"
	"strings"
)

type Strategy string

const (
	// HostSuffix takes the last five dot-separated segments of the URL host.
	// Matches https://prometheus.<domainSuffix> and
	// https://prometheus-k8s-openshift-monitoring.apps.<domainSuffix>.
	HostSuffix Strategy = "host-suffix"
	// PrefixSplit takes everything behind the literal "prometheus." without trailing slash.
	PrefixSplit Strategy = "prefix-split"
	// Auto uses PrefixSplit for hosts starting with "prometheus." and HostSuffix otherwise.
	Auto Strategy = "auto"

	hostSegments = 5
	prefixMarker = "prometheus."
)

var SupportedStrategies = []Strategy{Auto, HostSuffix, PrefixSplit}

func ParseStrategy(value string) (Strategy, error) {
	for _, strategy := range SupportedStrategies {
		if string(strategy) == value {
			return strategy, nil
		}
	}
	return "", fmt.Errorf("label strategy '%s' not supported - choose between '%s'", value, strategyNames())
}

func strategyNames() string {
	names := make([]string, 0, len(SupportedStrategies))
	for _, strategy := range SupportedStrategies {
		names = append(names, string(strategy))
	}
	return strings.Join(names, "', '")
}

// Label derives the short cluster label from a data source URL.
func (s Strategy) Label(dataSourceURL string) string {
	switch s {
	case HostSuffix:
		return hostSuffix(dataSourceURL)
	case PrefixSplit:
		if label, ok := prefixSplit(dataSourceURL); ok {
			return label
		}
		return hostSuffix(dataSourceURL)
	default:
		if strings.HasPrefix(host(dataSourceURL), prefixMarker) {
			if label, ok := prefixSplit(dataSourceURL); ok {
				return label
			}
		}
		return hostSuffix(dataSourceURL)
	}
}

func DatasourceName(customer, label string) string {
	return fmt.Sprintf("%s-%s", customer, label)
}

func hostSuffix(dataSourceURL string) string {
	segments := strings.Split(host(dataSourceURL), ".")
	if len(segments) > hostSegments {
		segments = segments[len(segments)-hostSegments:]
	}
	return strings.Join(segments, ".")
}

func prefixSplit(dataSourceURL string) (string, bool) {
	parts := strings.SplitN(dataSourceURL, prefixMarker, 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	return strings.TrimSuffix(parts[1], "/"), true
}

// host falls back to the raw string (minus trailing slashes) if no host can be parsed
func host(dataSourceURL string) string {
	if u, err := url.Parse(dataSourceURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return strings.TrimRight(dataSourceURL, "/")
}
