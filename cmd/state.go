package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/waypoint/internal/infrastructure/sqlite"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/presentation"
	"github.com/zjrosen/waypoint/internal/router"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/state"
)

var (
	stateList  bool
	stateLimit int
	stateGUID  string
	stateJSON  bool
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show saved navigation state",
	Long: `Show a saved snapshot of the navigation state.

Without flags the newest snapshot is applied to a fresh hierarchy and
every router's stack is described. Stacks holding destinations this
version no longer knows are reported as undecodable.

Examples:
  waypoint state
  waypoint state --list --limit 5
  waypoint state --guid 6f1c... --json`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func init() {
	stateCmd.Flags().BoolVarP(&stateList, "list", "l", false, "list saved snapshots, newest first")
	stateCmd.Flags().IntVarP(&stateLimit, "limit", "n", 10, "maximum snapshots to list (0 for all)")
	stateCmd.Flags().StringVarP(&stateGUID, "guid", "g", "", "show the snapshot with this GUID instead of the newest")
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "print JSON")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	if !cfg.State.Enabled {
		return errors.New("state persistence is disabled in the configuration")
	}
	db, err := sqlite.NewDB(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer func() { _ = db.Close() }()

	quiet := log.New(nil)
	store := state.NewStore(db.SnapshotRepository(), state.WithLogger(quiet), state.WithKeep(0))
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if stateList {
		snaps, err := store.List(ctx, stateLimit)
		if err != nil {
			return err
		}
		if stateJSON {
			return presentation.NewFormatter(out).FormatSnapshots(presentation.FromSnapshots(snaps))
		}
		return printSnapshotList(out, presentation.FromSnapshots(snaps))
	}

	var snap *state.Snapshot
	if stateGUID != "" {
		snap, err = store.Load(ctx, stateGUID)
	} else {
		snap, err = store.Latest(ctx)
	}
	if errors.Is(err, state.ErrNotFound) {
		return errors.New("no saved state")
	}
	if err != nil {
		return err
	}

	// Without an executor the hierarchy never observes, so it can be used
	// from this goroutine.
	root := routes.NewRootRouter(router.Env{Logger: quiet})
	defer root.Close()
	report := store.Apply(ctx, root, snap)

	descriptions := map[string]string{}
	router.Walk(root, func(r router.Router) {
		if p, ok := r.(state.Persistent); ok {
			descriptions[p.Node().Path()] = p.Describe()
		}
	})
	dto := presentation.FromSnapshot(snap, &report, func(path string) string { return descriptions[path] })

	if stateJSON {
		return presentation.NewFormatter(out).FormatSnapshot(dto)
	}
	return printSnapshot(out, dto, report)
}

func printSnapshotList(out io.Writer, snaps []presentation.SnapshotSummaryDTO) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(out, "no saved state")
		return err
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("GUID", "SAVED", "STACKS", "ENTRIES")
	for _, s := range snaps {
		t.Row(s.GUID, s.CreatedAt.Local().Format(time.DateTime), strconv.Itoa(s.Stacks), strconv.Itoa(s.Entries))
	}
	_, err := fmt.Fprintln(out, t.String())
	return err
}

func printSnapshot(out io.Writer, snap presentation.SnapshotDTO, report state.RestoreReport) error {
	_, _ = fmt.Fprintf(out, "snapshot %s saved %s\n", snap.GUID, snap.CreatedAt.Local().Format(time.DateTime))
	for _, s := range snap.Stacks {
		line := fmt.Sprintf("  %s: %s", s.Path, s.Description)
		switch s.Status {
		case presentation.StatusUndecodable:
			line += " (undecodable)"
		case presentation.StatusRejected:
			line = fmt.Sprintf("  %s: rejected: %v", s.Path, report.Rejected[s.Path])
		}
		_, _ = fmt.Fprintln(out, line)
	}
	if len(report.Missing) > 0 {
		missing := append([]string(nil), report.Missing...)
		sort.Strings(missing)
		for _, p := range missing {
			_, _ = fmt.Fprintf(out, "  %s: not saved\n", p)
		}
	}
	return nil
}
