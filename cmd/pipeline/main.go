package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/app"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/config"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/loader"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/logger"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/util"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/writer"
	"github.com/spf13/cobra"
)

var configPath string

func newPipeline() (*app.PipelineHandler, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New()
	return &app.PipelineHandler{
		Config: cfg,
		Loader: loader.Handler{Log: log},
		Log:    log,
	}, nil
}

func newContext(h *app.PipelineHandler) context.Context {
	return logger.AddToContext(context.Background(), h.Log)
}

func newWriter(h *app.PipelineHandler) writer.Writer {
	return writer.Writer{
		OutputDir: h.Config.OutputDir,
		RunDate:   h.Config.RunDate,
		Location:  util.ReportingLocation(h.Config.Timezone),
	}
}

func main() {
	root := &cobra.Command{
		Use:   "vpp-pipeline",
		Short: "VPP infeed reconciliation and settlement pipeline",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to pipeline config")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run every stage and write all outputs",
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := newPipeline()
				if err != nil {
					return err
				}
				_, err = h.Run(newContext(h))
				return err
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Align forecasts against live measurements and write best-of-infeed tables",
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := newPipeline()
				if err != nil {
					return err
				}
				records, portfolio, _, err := h.Reconcile(newContext(h))
				if err != nil {
					return err
				}
				w := newWriter(h)
				if _, err := w.WriteAlignedRecords(records); err != nil {
					return err
				}
				_, err = w.WritePortfolioRecords(portfolio)
				return err
			},
		},
		&cobra.Command{
			Use:   "trading",
			Short: "Compute trading performance metrics from the exchange export",
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := newPipeline()
				if err != nil {
					return err
				}
				books, portfolio, _, err := h.Trading(newContext(h))
				if err != nil {
					return err
				}
				w := newWriter(h)
				if _, err := w.WriteBookMetrics(books); err != nil {
					return err
				}
				_, err = w.WritePortfolioTradingMetrics(portfolio)
				return err
			},
		},
		&cobra.Command{
			Use:   "invoice",
			Short: "Generate settlement invoices from reconciled production",
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := newPipeline()
				if err != nil {
					return err
				}
				day, err := h.Config.Day()
				if err != nil {
					return err
				}
				records, _, _, err := h.Reconcile(newContext(h))
				if err != nil {
					return err
				}
				invoices, err := h.Invoices(newContext(h), records, day)
				if err != nil {
					return err
				}
				w := newWriter(h)
				if _, err := w.WriteInvoices(invoices); err != nil {
					return err
				}
				return w.WriteInvoiceDocuments(invoices)
			},
		},
		&cobra.Command{
			Use:   "report",
			Short: "Run the full pipeline and print where the report landed",
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := newPipeline()
				if err != nil {
					return err
				}
				result, err := h.Run(newContext(h))
				if err != nil {
					return err
				}
				fmt.Printf("report written for %s (%d assets)\n", result.RunDate, result.PortfolioPerformance.TotalAssets)
				return nil
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
