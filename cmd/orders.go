package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/journal"
	"github.com/example/gym-scheduler/internal/render"
)

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and cancel orders",
	}
	cmd.AddCommand(newOrdersListCmd(opts))
	cmd.AddCommand(newOrdersCancelCmd(opts))
	return cmd
}

func newOrdersListCmd(opts *rootOptions) *cobra.Command {
	var (
		status string
		limit  int
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List orders by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := booking.OrderStatus(status)
			switch st {
			case booking.StatusCreated, booking.StatusPaid, booking.StatusExpired, booking.StatusFinish:
			default:
				return fmt.Errorf("invalid --status %q (want created, paid, expired or finish)", status)
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be >= 1")
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

			list, err := a.gym.ListOrders(ctx, st, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no orders")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Orders(list))
			return nil
		},
	}

	c.Flags().StringVar(&status, "status", string(booking.StatusPaid), "created|paid|expired|finish")
	c.Flags().IntVar(&limit, "limit", 10, "max orders to list")
	return c
}

func newOrdersCancelCmd(opts *rootOptions) *cobra.Command {
	var (
		orderID    string
		resourceID string
		hourID     int
		offset     int
	)

	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an order by id or by the slot it books",
		RunE: func(cmd *cobra.Command, args []string) error {
			bySlot := resourceID != "" || hourID != 0
			if orderID == "" && !bySlot {
				return fmt.Errorf("either --id or --resource and --hour are required")
			}
			if orderID != "" && bySlot {
				return fmt.Errorf("--id cannot be combined with --resource/--hour")
			}
			if bySlot && (resourceID == "" || hourID == 0) {
				return fmt.Errorf("--resource and --hour must be given together")
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

			orch, err := a.orchestrator(journal.Nop{}, "")
			if err != nil {
				return err
			}

			if orderID != "" {
				if err := orch.CancelOrder(ctx, orderID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", orderID)
				return nil
			}

			day := booking.DayFor(time.Now(), offset)
			id, err := orch.CancelBySlot(ctx, day, resourceID, hourID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s (%s field %s hour %d)\n", id, day, resourceID, hourID)
			return nil
		},
	}

	c.Flags().StringVar(&orderID, "id", "", "order id")
	c.Flags().StringVar(&resourceID, "resource", "", "field id of the booked slot")
	c.Flags().IntVar(&hourID, "hour", 0, "hour id of the booked slot")
	c.Flags().IntVar(&offset, "offset", 0, "day offset of the booked slot (0 = today)")
	return c
}
