package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"daya/internal/app"
	"daya/internal/config"
	"daya/internal/services"
	"daya/internal/tracker"
	"daya/internal/utils"

	"github.com/spf13/cobra"
)

var (
	confirmReset bool

	rootCmd = &cobra.Command{
		Use:           "daya",
		Short:         "Daily Simran and Sehaj Paath tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, scheduled jobs and metrics endpoint",
		RunE:  runServe,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print today's habits, reading progress and the widget snapshot",
		RunE: withApp(func(cmd *cobra.Command, sm *services.ServiceManager, args []string) error {
			printStatus(cmd.OutOrStdout(), sm)
			return nil
		}),
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Erase every habit record and restart reading from today",
		RunE: withApp(func(cmd *cobra.Command, sm *services.ServiceManager, args []string) error {
			if !confirmReset {
				return errors.New("refusing to reset without --yes")
			}
			removed, err := sm.Reset.ResetAll()
			if err != nil {
				return fmt.Errorf("reset aborted, %d records removed: %w", removed, err)
			}
			sm.Widget.Refresh()
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d records removed\n", removed)
			return nil
		}),
	}

	habitsCmd = &cobra.Command{
		Use:   "habits",
		Short: "List habits in display order",
		RunE: withApp(func(cmd *cobra.Command, sm *services.ServiceManager, args []string) error {
			printHabits(cmd.OutOrStdout(), sm)
			return nil
		}),
	}

	habitsAddCmd = &cobra.Command{
		Use:   "add <name> [emoji]",
		Short: "Add a habit",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(func(cmd *cobra.Command, sm *services.ServiceManager, args []string) error {
			emoji := ""
			if len(args) == 2 {
				emoji = args[1]
			}
			h, err := sm.Habits.Add(args[0], emoji)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", h.Title(), h.ID)
			return nil
		}),
	}
)

func init() {
	resetCmd.Flags().BoolVar(&confirmReset, "yes", false, "confirm the reset")
	habitsCmd.AddCommand(habitsAddCmd)
	rootCmd.AddCommand(serveCmd, statusCmd, resetCmd, habitsCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = application.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// withApp opens the stores for a one-shot command and closes them afterwards.
func withApp(run func(*cobra.Command, *services.ServiceManager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer application.Stop()
		return run(cmd, application.Services(), args)
	}
}

func printStatus(w io.Writer, sm *services.ServiceManager) {
	view := sm.Progress.Today()
	fmt.Fprintf(w, "%s\n\n", utils.FormatDate(view.Date))
	for _, h := range view.Habits {
		if h.Cumulative {
			fmt.Fprintf(w, "  %s %-20s %d angs  streak %d\n", utils.DoneEmoji(h.Done), h.Habit.Title(), h.Angs, h.Streak)
		} else {
			fmt.Fprintf(w, "  %s %-20s streak %d\n", utils.RecordEmoji(h.Record), h.Habit.Title(), h.Streak)
		}
	}
	fmt.Fprintf(w, "\ncombined streak: %d\n", view.CombinedStreak)
	printProgress(w, view.Progress)

	snap := sm.Widget.Refresh()
	week := make([]string, 0, len(snap.WeekProgress))
	for _, done := range snap.WeekProgress {
		week = append(week, utils.DoneEmoji(done))
	}
	fmt.Fprintf(w, "\nwidget: simran=%t angs=%d streak=%d week=%s\n",
		snap.SimranDone, snap.PaathAngs, snap.Streak, strings.Join(week, ""))
}

func printProgress(w io.Writer, p tracker.Progress) {
	fmt.Fprintf(w, "\nsehaj paath: %d/%d angs %s %.1f%%\n", p.Total, p.TargetTotal, utils.ProgressBar(p.Percent, 20), p.Percent)
	fmt.Fprintf(w, "  started %s, day %d, %.1f angs/day\n", p.StartDate.Format("2006-01-02"), p.DaysSinceStart, p.DailyAverage)
	if p.HasEstimate {
		fmt.Fprintf(w, "  estimated finish %s\n", p.EstimatedFinish.Format("2006-01-02"))
	}
	if p.HasTargetDate {
		if p.AheadOfSchedule {
			fmt.Fprintf(w, "  target %s: ahead of schedule\n", p.TargetDate.Format("2006-01-02"))
		} else {
			fmt.Fprintf(w, "  target %s: %.1f angs/day needed\n", p.TargetDate.Format("2006-01-02"), p.RequiredDailyPace)
		}
	}
}

func printHabits(w io.Writer, sm *services.ServiceManager) {
	for i, h := range sm.Habits.List() {
		flags := ""
		if !h.IsVisible {
			flags += " hidden"
		}
		if h.IsSystem {
			flags += " built-in"
		}
		fmt.Fprintf(w, "%d. %s [%s]%s\n", i+1, h.Title(), h.ID, flags)
	}
}
