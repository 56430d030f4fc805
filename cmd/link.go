package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/presentation"
)

var (
	linkJSON    bool
	linkNoState bool
)

var linkCmd = &cobra.Command{
	Use:   "link <url>...",
	Short: "Apply deep links to the navigation state",
	Long: `Apply one or more deep links without opening the navigator.

Every URL is parsed before anything is applied, so a bad URL leaves the
state untouched. The links run against the last saved state, in order,
and the result is saved again. The router records produced along the way
are printed.

Examples:
  waypoint link waypoint://chat
  waypoint link waypoint://transportation/bus waypoint://transportation?type=train

  # Start from empty stacks and keep nothing
  waypoint link --no-state waypoint://chat

  # Machine readable results
  waypoint link --json waypoint://chat | jq '.[].section'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().BoolVar(&linkJSON, "json", false, "print dispatch results as JSON instead of records")
	linkCmd.Flags().BoolVar(&linkNoState, "no-state", false, "neither restore nor save navigation state")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	links := make([]deeplink.DeepLink, len(args))
	for i, raw := range args {
		l, err := deeplink.Parse(raw)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		links[i] = l
	}

	c := cfg
	if linkNoState {
		c.State.Enabled = false
	}
	opts := runtimeOptions{}
	if !linkJSON {
		opts.out = cmd.OutOrStdout()
	}

	rt, err := newRuntime(cmd.Context(), c, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	results := make([]presentation.DispatchDTO, 0, len(links))
	for _, l := range links {
		res, err := rt.dispatcher.Dispatch(cmd.Context(), l)
		if err != nil {
			return err
		}
		results = append(results, presentation.FromDispatch(deeplink.Format(l), res))
	}
	rt.settle()

	if linkJSON {
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatDispatches(results)
	}
	return nil
}
