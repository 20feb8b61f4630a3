// MoviePilot gateway - OneBot v11 message bridge
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zifox666/MoviePilot/cmd/moviepilot/internal/serve"
)

var version = "dev"

func NewMoviePilotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "moviepilot",
		Short:   "MoviePilot messaging gateway",
		Example: "moviepilot serve --config config.yaml",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version)
		},
	}
}

func main() {
	cmd := NewMoviePilotCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
