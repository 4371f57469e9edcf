package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/adapters/events"
	"github.com/aradsms/tollfree_migrator/internal/migration_service/adapters/exclusion"
	"github.com/aradsms/tollfree_migrator/internal/migration_service/adapters/twilio"
	"github.com/aradsms/tollfree_migrator/internal/migration_service/app"
	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
	transporthttp "github.com/aradsms/tollfree_migrator/internal/migration_service/transport/http"
	"github.com/aradsms/tollfree_migrator/internal/platform/config"
	"github.com/aradsms/tollfree_migrator/internal/platform/logger"
	"github.com/aradsms/tollfree_migrator/internal/platform/messagebroker"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"only-pending":             "ONLY_PENDING",
	"max-tollfree-numbers":     "MAX_TOLLFREE_NUMBERS",
	"exclusion-file":           "EXCLUSION_FILE",
	"message-volume":           "MESSAGE_VOLUME",
	"opt-in-type":              "OPT_IN_TYPE",
	"use-case-category":        "USE_CASE_CATEGORY",
	"opt-in-image-url":         "OPT_IN_IMAGE_URL",
	"log-level":                "LOG_LEVEL",
	"metrics-addr":             "METRICS_ADDR",
	"nats-url":                 "NATS_URL",
	"verification-concurrency": "VERIFICATION_CONCURRENCY",
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one migration pass over every active sub-account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config-path")
			configName, _ := cmd.Flags().GetString("config-name")

			v := config.New(configPath, configName)
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			cfg, err := config.Read(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.Bool("only-pending", false, "only migrate services whose campaign is still IN_PROGRESS")
	f.String("max-tollfree-numbers", "", `maximum toll-free numbers to purchase, or "unlimited"`)
	f.String("exclusion-file", "", "CSV file of sub-account SIDs to skip (first column, header row)")
	f.String("message-volume", "", "estimated monthly message volume for verifications")
	f.String("opt-in-type", "", "consent collection method for verifications")
	f.String("use-case-category", "", "use-case category for verifications")
	f.String("opt-in-image-url", "", "URL of the opt-in evidence image")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("metrics-addr", "", "serve /metrics and /healthz on this address during the run")
	f.String("nats-url", "", "publish swap events to this NATS server")
	f.Int("verification-concurrency", 0, "maximum concurrent verification submissions")
	return cmd
}

// bindFlags binds only flags the operator set, so unset flags never mask
// environment or file values.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// runOptionsFromConfig collects the operator input of a run.
func runOptionsFromConfig(cfg *config.Config) domain.RunOptions {
	return domain.RunOptions{
		OnlyPending:          cfg.OnlyPending,
		MaxTollFreeNumbers:   cfg.MaxTollFreeNumbers,
		ExclusionFilePath:    cfg.ExclusionFile,
		MonthlyMessageVolume: cfg.MonthlyMessageVolume,
		OptInType:            cfg.OptInType,
		UseCaseCategory:      cfg.UseCaseCategory,
		OptInImageURL:        cfg.OptInImageURL,
	}
}

// preflight validates everything that must hold before any provider call.
func preflight(cfg *config.Config) (domain.RunOptions, *domain.PurchaseBudget, domain.ExclusionSet, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return domain.RunOptions{}, nil, nil, fmt.Errorf("%w: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set", domain.ErrMissingCredentials)
	}

	opts := runOptionsFromConfig(cfg)
	if err := opts.Validate(); err != nil {
		return domain.RunOptions{}, nil, nil, err
	}
	budget, err := domain.ParseMaxTollFree(opts.MaxTollFreeNumbers)
	if err != nil {
		return domain.RunOptions{}, nil, nil, err
	}
	exclusions, err := exclusion.LoadExclusionSet(opts.ExclusionFilePath)
	if err != nil {
		return domain.RunOptions{}, nil, nil, err
	}
	return opts, budget, exclusions, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	appLogger := logger.New(cfg.LogLevel).With("run_id", runID)
	appLogger.Info("Toll-free migrator starting...", "log_level", cfg.LogLevel)

	opts, budget, exclusions, err := preflight(cfg)
	if err != nil {
		appLogger.Error("Pre-run validation failed", "error", err)
		return err
	}

	client := twilio.NewClient(appLogger, cfg.AccountSID, cfg.AuthToken, twilio.Endpoints{
		API:       cfg.ProviderAPIURL,
		Messaging: cfg.ProviderMessagingURL,
		TrustHub:  cfg.ProviderTrustHubURL,
		Numbers:   cfg.ProviderNumbersURL,
	}, &http.Client{Timeout: cfg.ProviderRequestTimeout})

	var publisher app.SwapEventPublisher
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, appName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			return err
		}
		defer natsClient.Close()
		publisher = events.NewSwapPublisher(natsClient, cfg.NATSSwapSubject, appLogger)
	}

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()
	if cfg.MetricsAddr != "" {
		server := transporthttp.NewMetricsServer(cfg.MetricsAddr, appLogger)
		g.Go(func() error { return server.Run(serverCtx) })
	}

	telemetry := app.NewTelemetryEvaluator(appLogger,
		app.WithErrorWindow(time.Duration(cfg.ErrorWindowDays)*24*time.Hour))
	queue := app.NewVerificationQueue(ctx, app.NewVerificationExtractor(appLogger), opts, cfg.VerificationConcurrency, appLogger)

	orchestrator := app.NewOrchestrator(client, client, telemetry, queue, publisher, budget, exclusions, app.OrchestratorConfig{
		RunID:           runID,
		OnlyPending:     opts.OnlyPending,
		TollFreeCountry: cfg.TollFreeCountry,
	}, appLogger)

	report, runErr := orchestrator.Run(gctx)
	stopServer()
	if err := g.Wait(); err != nil {
		appLogger.Error("Metrics server stopped with error", "error", err)
	}

	if report != nil {
		logReport(appLogger, report, budget)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			appLogger.Warn("Run interrupted")
		}
		return runErr
	}
	return nil
}

func logReport(log *slog.Logger, report *app.RunReport, budget *domain.PurchaseBudget) {
	log.Info("Run report",
		"subaccounts_skipped", report.SubaccountsSkipped,
		"subaccounts_failed", report.SubaccountsFailed,
		"numbers_checked", report.NumbersChecked,
		"numbers_left_in_place", report.NumbersLeftInPlace,
		"numbers_reused", report.NumbersReused,
		"allocation_failures", report.AllocationFailures,
		"budget", budget.String(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	for _, res := range report.Verification.Results {
		if res.Err != nil {
			log.Warn("Toll-free verification not filed", "account_sid", res.AccountSID,
				"service_sid", res.ServiceSID, "phone_number", res.PhoneNumber, "error", res.Err)
		}
	}
}
