package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/handler"
	"github.com/amoylab/ragtrack/internal/apiserver/middleware"
	"github.com/amoylab/ragtrack/internal/apiserver/notify"
	"github.com/amoylab/ragtrack/internal/apiserver/report"
	"github.com/amoylab/ragtrack/internal/apiserver/scheduler"
	"github.com/amoylab/ragtrack/internal/apiserver/scope"
	"github.com/amoylab/ragtrack/internal/auth/jwt"
	"github.com/amoylab/ragtrack/internal/common/cnst"
	"github.com/amoylab/ragtrack/internal/common/config"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/amoylab/ragtrack/pkg/logger"
	"github.com/amoylab/ragtrack/pkg/mailer"
	"github.com/amoylab/ragtrack/pkg/metrics"
	"github.com/amoylab/ragtrack/pkg/version"
	"github.com/amoylab/ragtrack/pkg/week"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "RAG status tracker API server",
		Long:  `Weekly Red/Amber/Green project health tracker: report submission, dashboards and email digests`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", cnst.ApiServerYaml, "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", cfgPath, err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	if err := i18n.InitTranslator(cfg.I18n.Path); err != nil {
		zapLogger.Warn("failed to load translations, falling back to defaults",
			zap.String("path", cfg.I18n.Path),
			zap.Error(err))
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database",
			zap.String("type", cfg.Database.Type),
			zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.InitDefaultAdmin(ctx, db, &cfg.SuperAdmin); err != nil {
		zapLogger.Fatal("failed to seed admin account", zap.Error(err))
	}

	jwtSvc, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		zapLogger.Fatal("failed to initialize jwt service", zap.Error(err))
	}

	m := metrics.New(cfg.Metrics)
	cal := week.NewCalendar(cfg.Retention.Months)
	resolver := scope.NewResolver(db)
	reportSvc := report.NewService(db, resolver, &cal)

	var pipeline *notify.Pipeline
	if cfg.Mailer.APIKey != "" {
		client := mailer.NewClient(cfg.Mailer.APIKey, cfg.Mailer.From)
		dispatcher, err := notify.NewDispatcher(client, cfg.Mailer.FrontendURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to initialize mail dispatcher", zap.Error(err))
		}
		pipeline = notify.NewPipeline(db, dispatcher, m, zapLogger)
	} else {
		zapLogger.Warn("mailer api key not configured, email digests disabled")
	}

	sched, err := buildScheduler(cfg, db, pipeline, m, &cal, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to build schedule", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	router := buildRouter(cfg, db, jwtSvc, reportSvc, pipeline, m, zapLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildScheduler wires the weekly digest jobs and the daily retention purge.
// Digest jobs are only registered when a mailer is configured; the purge
// always runs.
func buildScheduler(cfg *config.APIServerConfig, db database.Database, pipeline *notify.Pipeline, m *metrics.Metrics, cal *week.Calendar, zapLogger *zap.Logger) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	sched := scheduler.NewScheduler(zapLogger)

	purge, err := scheduler.ParseDaily(cfg.Schedule.PurgeTime, loc)
	if err != nil {
		return nil, err
	}
	sched.AddJob("retention-purge", purge, func(ctx context.Context) error {
		n, err := db.PurgeExpiredReports(ctx, cal.Cutoff(time.Now()))
		if err != nil {
			return err
		}
		if n > 0 {
			m.ReportsPurged(n)
			zapLogger.Info("purged expired reports", zap.Int64("count", n))
		}
		return nil
	})

	if pipeline == nil {
		return sched, nil
	}

	reminders, err := scheduler.ParseWeekly(cfg.Schedule.ReminderDay, cfg.Schedule.ReminderTime, loc)
	if err != nil {
		return nil, err
	}
	sched.AddJob("weekly-reminders", reminders, func(ctx context.Context) error {
		_, _, err := pipeline.DispatchReminders(ctx)
		return err
	})

	dashboard, err := scheduler.ParseWeekly(cfg.Schedule.DashboardDay, cfg.Schedule.DashboardTime, loc)
	if err != nil {
		return nil, err
	}
	sched.AddJob("weekly-dashboard", dashboard, func(ctx context.Context) error {
		_, _, err := pipeline.DispatchDashboard(ctx)
		return err
	})

	return sched, nil
}

func buildRouter(cfg *config.APIServerConfig, db database.Database, jwtSvc *jwt.Service, reportSvc *report.Service, pipeline *notify.Pipeline, m *metrics.Metrics, zapLogger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())

	authH := handler.NewAuth(db, jwtSvc, zapLogger)
	userH := handler.NewUser(db, zapLogger)
	projectH := handler.NewProject(db, zapLogger)
	reportH := handler.NewReport(db, reportSvc, m, zapLogger)
	emailH := handler.NewEmail(pipeline, zapLogger)

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	api.POST("/auth/login", authH.Login)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtSvc), middleware.LanguageMiddleware())
	authed.GET("/auth/me", authH.Me)
	authed.POST("/auth/change-password", authH.ChangePassword)

	authed.GET("/projects", projectH.List)
	authed.GET("/reports", reportH.List)
	authed.GET("/reports/current-week", reportH.CurrentWeek)
	authed.GET("/reports/weeks", reportH.Weeks)
	authed.GET("/reports/history/:projectId", reportH.History)
	authed.POST("/reports", middleware.RequireRoles("pm"), reportH.Submit)
	authed.POST("/reports/rag-suggestion", middleware.RequireRoles("pm", "admin"), reportH.Suggest)

	admin := authed.Group("", middleware.RequireRoles("admin"))
	admin.GET("/users", userH.List)
	admin.GET("/users/pms", userH.ListPMs)
	admin.POST("/users", userH.Create)
	admin.PUT("/users/:id", userH.Update)
	admin.DELETE("/users/:id", userH.Delete)

	admin.POST("/projects", projectH.Create)
	admin.PUT("/projects/:id", projectH.Update)
	admin.DELETE("/projects/:id", projectH.Delete)

	admin.GET("/email/recipients", emailH.Recipients)
	admin.POST("/email/send-dashboard", emailH.SendDashboard)
	admin.POST("/email/send-reminders", emailH.SendReminders)

	return router
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
