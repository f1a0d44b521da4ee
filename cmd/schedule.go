package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/logging"
	"github.com/example/gym-scheduler/internal/render"
)

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var (
		offset  int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the court availability grid for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if offset < 0 {
				return fmt.Errorf("--offset must be >= 0")
			}
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			day := booking.DayFor(time.Now(), offset)
			avail, err := a.gym.GetAvailability(ctx, day)
			if err != nil {
				return err
			}
			out := render.Schedule(day, a.catalog.Resources(ctx), a.catalog.Hours(ctx), avail,
				noColor || !logging.ColorEnabled(cmd.OutOrStdout()))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 1, "day offset (0 = today)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
