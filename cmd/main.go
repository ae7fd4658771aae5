package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	provisionCmd "github.com/ukcloud/grafana-provisioner/cmd/provision"
	renderCmd "github.com/ukcloud/grafana-provisioner/cmd/render"
	"github.com/ukcloud/grafana-provisioner/internal/cli"
)

func main() {
	o := cli.NewOptions()
	cmd := cli.NewRootCommand(
		o,
		filepath.Base(os.Args[0]),
		"Grafana provisioner",
		"Provisions Prometheus data sources and dashboards for all customer clusters into Grafana")

	provisionOpts := provisionCmd.NewOptions(o)
	cmd.AddCommand(provisionCmd.NewCmd(provisionOpts))
	cmd.AddCommand(renderCmd.NewCmd(renderCmd.NewOptions(o)))

	//without sub-command a provisioning run is started with settings from env-vars or config file
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return provisionCmd.Run(cli.NewContext(), provisionOpts, cmd.OutOrStdout())
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
