package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/spool"
)

var spoolDir string

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Apply deep links dropped into the spool directory",
	Long: `Watch the spool directory and apply every deep link dropped into it
until interrupted. Files ending in .link hold one URL per line; files with
lines that do not parse are renamed to .rejected.

The navigator does the same while running when spool.enabled is set.

Examples:
  waypoint spool
  waypoint spool --dir /tmp/links
  waypoint spool drop waypoint://chat`,
	Args: cobra.NoArgs,
	RunE: runSpoolCmd,
}

var spoolDropCmd = &cobra.Command{
	Use:   "drop <url>...",
	Short: "Write deep links into the spool directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		links := make([]deeplink.DeepLink, len(args))
		for i, raw := range args {
			l, err := deeplink.Parse(raw)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i+1, err)
			}
			links[i] = l
		}
		path, err := spool.Write(resolvedSpoolDir(), links...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() {
	spoolCmd.PersistentFlags().StringVar(&spoolDir, "dir", "", "spool directory (default: spool.dir from the configuration)")
	spoolCmd.AddCommand(spoolDropCmd)
	rootCmd.AddCommand(spoolCmd)
}

func resolvedSpoolDir() string {
	if spoolDir != "" {
		return spoolDir
	}
	return cfg.Spool.Dir
}

func runSpoolCmd(cmd *cobra.Command, args []string) error {
	c := cfg
	c.Spool.Enabled = true
	c.Spool.Dir = resolvedSpoolDir()
	if c.Spool.Dir == "" {
		return errors.New("no spool directory configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, c, runtimeOptions{out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer rt.Close()

	done, err := rt.runSpool(ctx)
	if err != nil {
		return err
	}
	return <-done
}
