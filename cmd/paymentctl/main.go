// paymentctl is the operator tool for payment incidents: it inspects and
// replays captures, sweeps expired quotes and issues admin tokens.
package main

import (
	"context"
	"fmt"
	"os"

	"sendahandyman-backend/internal/app"
	paymentUsecase "sendahandyman-backend/internal/payment/usecase"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Operator commands for the handyman payment service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(captureCmd())
	rootCmd.AddCommand(expireQuotesCmd())
	rootCmd.AddCommand(issueTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application for one command and tears it down after
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Load()
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zl.Sync()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := app.Migrate(a.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
				return nil
			})
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [task-id]",
		Short: "Compare a task's payment records with the processor without moving money",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Capture.Reconcile(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "task:        %s (%s)\n", report.Task.TaskID, report.Task.ID)
				fmt.Fprintf(out, "task status: %s / payment %s\n", report.Task.Status, report.Task.PaymentStatus)
				fmt.Fprintf(out, "state:       %s\n", report.State)
				if report.Hold != nil {
					fmt.Fprintf(out, "hold:        %s %s amount=%d received=%d source=%s\n",
						report.Hold.ID, report.Hold.Status, report.Hold.Amount, report.Hold.AmountReceived, report.Source)
				}
				if report.Candidates > 1 {
					fmt.Fprintf(out, "warning:     %d holds matched the customer, verify before capturing\n", report.Candidates)
				}
				return nil
			})
		},
	}
}

func captureCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "capture [task-id]",
		Short: "Capture a task's authorization hold, safe to repeat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Capture.Capture(ctx, paymentUsecase.CaptureRequest{
					TaskID:          args[0],
					CompletionNotes: notes,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s: %s captured via %s\n", res.Outcome, res.TaskNumber, res.AmountCaptured.StringFixed(2), res.Source)
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "warning: %s: %s\n", w.Step, w.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes stored on the payment")
	return cmd
}

func expireQuotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-quotes",
		Short: "Mark pending quotes past their expiry as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Quotes.ExpireStale(ctx)
				if err != nil {
					return err
				}
				a.Logger.Info("Quote sweep finished", zap.Int64("expired", n))
				fmt.Fprintf(cmd.OutOrStdout(), "%d quotes expired\n", n)
				return nil
			})
		},
	}
}

func issueTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token [email]",
		Short: "Issue an admin bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				token, err := a.Auth.IssueToken(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}
