package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	scale "github.com/luhtfiimanal/go-serial-scale"
	"github.com/luhtfiimanal/go-serial-scale/internal/cliconfig"
)

const longHelp = `Poll a serial scale for its current weight and print every reading.

The port is opened at 9600-8-N-1. Every 200ms an ENQ (0x05) is sent and the
STX ... ETX framed answer is printed to stdout, one reading per line, exactly
as the scale sends it. Diagnostics go to stderr. The port is released on
SIGINT, SIGHUP, SIGQUIT or SIGTERM.`

var exampleUsage = strings.TrimSpace(`
  scale-reader ttyUSB0
  scale-reader /dev/ttyS1 --log-level debug
  scale-reader COM3
`)

// exit is replaced in tests.
var exit = os.Exit

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit status.
// stdout carries only weight readings.
func run(args []string, stdout, stderr io.Writer) int {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "scale-reader PORT",
		Short:   "Stream weight readings from a serial scale to stdout",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: missing port identifier", scale.ErrUsage)
			}
			return nil
		},
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cliconfig.ApplyFileConfig(&cfg, fc, changed)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, logCloser := cliconfig.NewLogger(cfg, stderr)
			defer logCloser.Close()

			coord := scale.NewShutdownCoordinator(
				scale.WithExit(func(code int) {
					logCloser.Close()
					exit(code)
				}),
				scale.WithCoordinatorLogger(log),
			)
			coord.Register()
			defer coord.Stop()

			d := scale.NewDriver(args[0], stdout,
				scale.WithLogger(log),
				scale.WithOnOpen(coord.Attach),
			)
			if err := d.Run(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("could not open scale port")
			}

			coord.Release()
			return nil
		},
	}

	root.SetArgs(args)
	root.SetOut(stderr)
	root.SetErr(stderr)

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.scale-reader/config.toml)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "diagnostic log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write diagnostics to this rotating file")
	root.Flags().IntVar(&cfg.LogMaxSizeMB, "log-max-size", cfg.LogMaxSizeMB, "log file size in MB before rotation")
	root.Flags().IntVar(&cfg.LogMaxBackups, "log-max-backups", cfg.LogMaxBackups, "rotated log files to keep")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
