package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/httpapi"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/ingest"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/report"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/scheduler"
	pgstore "github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store/postgres"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the end-of-shift scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateSecurityConfig(c.cfg); err != nil {
				return fmt.Errorf("invalid security configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli) error {
	logger := c.logger
	a, err := buildApp(ctx, c.cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(logger)

	auth, err := httpapi.NewAuthManager(c.cfg.AuthSecret, c.cfg.AccessTokenTTL(), a.repo)
	if err != nil {
		return err
	}
	api := httpapi.New(a.svc, auth, httpapi.Config{
		AllowedOrigin: c.cfg.AllowedOrigin,
		WebhookSecret: c.cfg.LoyverseWebhookSecret,
		Logger:        logger.Named("http"),
	})

	server := &http.Server{
		Addr:              c.cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("back office listening", zap.String("addr", c.cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if c.cfg.SchedulerEnabled {
		jobs := scheduler.New(a.svc.EndOfShift, a.locker, logger.Named("scheduler"))
		g.Go(func() error {
			return jobs.Run(gctx)
		})
	} else {
		logger.Info("scheduler disabled")
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func newSyncCmd(c *cli) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull one shift's receipts from the POS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close(c.logger)

			run, err := a.svc.SyncShift(cmd.Context(), date, ingest.ModeManual)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "shift date (YYYY-MM-DD); defaults to the current shift")
	return cmd
}

func newRecheckCmd(c *cli) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "recheck",
		Short: "Recompute and store a shift's reconciliation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close(c.logger)

			resp, err := a.svc.Recheck(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "shift date (YYYY-MM-DD); defaults to the current shift")
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	var (
		date   string
		format string
		out    string
		send   bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render or email a shift's daily summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close(c.logger)

			if send {
				return a.svc.SendDailySummary(cmd.Context(), date)
			}

			summary, err := a.svc.DailySummary(cmd.Context(), date)
			if err != nil {
				return err
			}
			body, err := renderSummary(summary, format)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(out, body, 0o644)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "shift date (YYYY-MM-DD); defaults to the current shift")
	cmd.Flags().StringVar(&format, "format", "text", "text, html, csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file; stdout when empty")
	cmd.Flags().BoolVar(&send, "send", false, "email the summary to REPORT_RECIPIENTS instead of printing it")
	return cmd
}

func renderSummary(summary report.Summary, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		out, err := report.RenderText(summary)
		return []byte(out), err
	case "html":
		out, err := report.RenderHTML(summary)
		return []byte(out), err
	case "csv":
		return report.RenderCSV(summary)
	case "xlsx":
		return report.RenderXLSX(summary)
	case "json":
		return json.MarshalIndent(summary, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			pg, err := pgstore.New(cmd.Context(), c.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			c.logger.Info("schema applied")
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
