package grafana

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// MinimumVersion is the oldest Grafana release offering the dashboard import endpoint.
const MinimumVersion = "5.0.0"

type Health struct {
	Commit   string `mapstructure:"commit"`
	Database string `mapstructure:"database"`
	Version  string `mapstructure:"version"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.Request(ctx, EndpointHealth, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	health := &Health{}
	if err := mapstructure.Decode(resp, health); err != nil {
		return nil, errors.Wrap(err, "failed to decode Grafana health response")
	}
	return health, nil
}

// CheckVersion returns an error if the reported Grafana version is unparsable or older than MinimumVersion.
func (h *Health) CheckVersion() error {
	current, err := semver.NewVersion(strings.TrimPrefix(h.Version, "v"))
	if err != nil {
		return errors.Wrapf(err, "failed to parse Grafana version '%s'", h.Version)
	}
	minimum := semver.New(MinimumVersion)
	if current.LessThan(*minimum) {
		return fmt.Errorf("Grafana version '%s' is older than the minimal supported version '%s'", current, minimum)
	}
	return nil
}
