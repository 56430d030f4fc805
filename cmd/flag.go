package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/waypoint/internal/config"
	"github.com/zjrosen/waypoint/internal/flags"
)

var flagCmd = &cobra.Command{
	Use:   "flag [name [on|off]]",
	Short: "Show or change feature flags",
	Long: `Show feature flags, or turn one on or off in the config file.

Examples:
  waypoint flag
  waypoint flag change-diff on
  waypoint flag restore-state off`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 || len(args) > 2 {
			return fmt.Errorf("expected no arguments or <name> <on|off>, got %d", len(args))
		}
		return nil
	},
	RunE: runFlag,
}

func init() {
	rootCmd.AddCommand(flagCmd)
}

func runFlag(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	reg := flags.New(cfg.Flags)

	if len(args) == 0 {
		names := flags.Known()
		for name := range reg.All() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		slices.Sort(names)
		for _, name := range names {
			state := "off"
			if reg.Enabled(name) {
				state = "on"
			}
			if _, err := fmt.Fprintf(out, "%s: %s\n", name, state); err != nil {
				return err
			}
		}
		return nil
	}

	name := args[0]
	if !slices.Contains(flags.Known(), name) {
		return fmt.Errorf("unknown flag %q (known: %s)", name, strings.Join(flags.Known(), ", "))
	}
	var on bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		on = true
	case "off", "false", "0":
	default:
		return fmt.Errorf("flag value must be on or off, got %q", args[1])
	}

	path := configPath()
	if err := config.SaveFlag(path, name, on); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s set to %s in %s\n", name, args[1], path)
	return err
}
