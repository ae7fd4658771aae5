package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	file "github.com/ukcloud/grafana-provisioner/pkg/files"
)

func NewRootCommand(o *Options, name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: shortDesc,
		Long:  longDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			//validate given user input
			if err := o.Validate(); err != nil {
				return err
			}
			return InitViper(o)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "",
		"Path to an optional configuration file (env-vars take precedence over its settings)")
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Show detailed information about the executed command actions")
	cmd.PersistentFlags().StringVarP(&o.OutputFormat, "output", "o", "table",
		fmt.Sprintf("Output format (%s)", strings.Join(SupportedOutputFormats, ", ")))
	return cmd
}

// InitViper binds the environment variables and reads the optional configuration file.
func InitViper(o *Options) error {
	v := o.Viper()
	if err := config.BindEnv(v); err != nil {
		return errors.Wrap(err, "failed to bind environment variables")
	}

	if o.ConfigFile == "" {
		return nil
	}
	if !file.Exists(o.ConfigFile) {
		o.Logger().Warnf("Configuration file '%s' not found: using env-vars and defaults", o.ConfigFile)
		return nil
	}
	v.SetConfigFile(o.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read configuration file '%s'", o.ConfigFile)
	}
	if isYAML(o.ConfigFile) {
		content, err := os.ReadFile(o.ConfigFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read configuration file '%s'", o.ConfigFile)
		}
		if err := config.PreserveDashboardSources(v, content); err != nil {
			return errors.Wrapf(err, "failed to parse configuration file '%s'", o.ConfigFile)
		}
	}
	o.Logger().Debugf("Using configuration file '%s'", v.ConfigFileUsed())
	return nil
}

// JSON is a subset of YAML
func isYAML(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
