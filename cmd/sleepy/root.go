package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kbukum/sleepy/version"
)

// cli carries the state shared by subcommands.
type cli struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "sleepy",
		Short:         "Client for the Sleepy.Mongoose REST gateway",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if c.flags.noColor {
				color.NoColor = true
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.configFile, "config", "c", "", "config file (default: ./sleepy.yml, ./config.yml)")
	pf.StringVar(&c.flags.envFile, "env-file", "", "env file to load (default: .env.sleepy, .env)")
	pf.StringVarP(&c.flags.gateway, "gateway", "g", "", "gateway base URL (default http://localhost:27080)")
	pf.StringVarP(&c.flags.server, "server", "s", "", "database server host:port (default localhost:27017)")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "per-request timeout")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "log requests at debug level")
	pf.BoolVar(&c.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		c.helloCmd(),
		c.connectCmd(),
		c.findCmd(),
		c.moreCmd(),
		c.removeCmd(),
		c.updateCmd(),
		c.insertCmd(),
		c.commandCmd(),
		c.runCmd(),
		c.statusCmd(),
		c.versionCmd(),
	)
	return root
}

// withApp starts the application around fn and stops it afterwards.
func (c *cli) withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := startApp(cmd.Context(), &c.flags, c.stderr)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.close())
		}()
		return fn(cmd.Context(), a, args)
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
