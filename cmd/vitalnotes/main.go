package main

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vitalnotes/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{v: config.New()}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	c.finish(err)
	return err
}

type cli struct {
	v       *viper.Viper
	cfgFile string
	app     *app
	segment *xray.Segment
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "vitalnotes",
		Short:             "Patient records client with role-based access",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (yaml, json, toml or .env)")
	flags.String("api-url", "", "remote API base URL")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = c.v.BindPFlag("API_URL", flags.Lookup("api-url"))
	_ = c.v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.canCmd(),
		c.dashboardCmd(),
		c.patientsCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	if cfg.TracingEnabled {
		_ = xray.Configure(xray.Config{LogLevel: "error"})
		ctx, seg := xray.BeginSegment(cmd.Context(), "vitalnotes-"+cmd.Name())
		cmd.SetContext(ctx)
		c.segment = seg
	}
	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) finish(err error) {
	if c.segment != nil {
		c.segment.Close(err)
	}
	if c.app != nil {
		c.app.close()
	}
}
