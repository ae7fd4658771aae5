package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukcloud/grafana-provisioner/cmd/provision"
	"github.com/ukcloud/grafana-provisioner/internal/cli"
	"github.com/ukcloud/grafana-provisioner/pkg/config"
	"github.com/ukcloud/grafana-provisioner/pkg/dashboard"
	file "github.com/ukcloud/grafana-provisioner/pkg/files"
	"github.com/ukcloud/grafana-provisioner/pkg/provisioning"
)

const adminFile = "admin.json"

type Options struct {
	*cli.Options
	TargetDir string
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dashboards without contacting Grafana",
		Long: "Render the customer dashboards and the admin dashboard of the configured customers. " +
			"Dashboards are printed to stdout or written into a target directory.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return provision.BindFlags(cmd, o.Options)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(o, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&o.TargetDir, "target-dir", "d", "", "Write one file per dashboard into this directory instead of stdout")
	cmd.Flags().String("label-strategy", "", "Strategy used to derive the cluster label from the data source URL")
	cmd.Flags().String("templates-dir", "", "Directory with dashboard templates overriding the built-in templates")
	cmd.Flags().String("admin-dashboard", "", "JSON or YAML file overriding the built-in admin dashboard")
	return cmd
}

// Run renders all dashboards. Only the customer map is required, Grafana settings are ignored.
func Run(o *Options, out io.Writer) error {
	v := o.Viper()
	customers, strategy, err := config.LoadCustomers(v)
	if err != nil {
		return err
	}
	renderer, err := dashboard.NewRenderer(v.GetString(config.KeyTemplatesDir), v.GetString(config.KeyAdminDashboard))
	if err != nil {
		return err
	}

	if o.TargetDir != "" {
		if err := file.EnsureDir(o.TargetDir); err != nil {
			return errors.Wrapf(err, "failed to create target directory '%s'", o.TargetDir)
		}
	}

	for _, customer := range customers {
		body, err := renderer.RenderCustomerDashboard(provisioning.DatasourceInfo(customer, strategy), customer.Name)
		if err != nil {
			return errors.Wrapf(err, "failed to render dashboard of customer '%s'", customer.Name)
		}
		if err := o.write(out, dashboard.UID(customer.Name)+".json", body); err != nil {
			return err
		}
	}

	body, err := renderer.RenderAdminDashboard()
	if err != nil {
		return errors.Wrap(err, "failed to render admin dashboard")
	}
	return o.write(out, adminFile, body)
}

func (o *Options) write(out io.Writer, fileName, body string) error {
	if o.TargetDir == "" {
		_, err := fmt.Fprintln(out, body)
		return err
	}
	target := filepath.Join(o.TargetDir, fileName)
	if err := os.WriteFile(target, []byte(body), 0600); err != nil {
		return errors.Wrapf(err, "failed to write dashboard file '%s'", target)
	}
	o.Logger().Infof("Dashboard written to '%s'", target)
	return nil
}
