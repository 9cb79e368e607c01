package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"intraprep/internal/app"
	"intraprep/internal/config"
	"intraprep/internal/leetcode"
	"intraprep/internal/mail"
	"intraprep/internal/objstore"
	"intraprep/internal/queue"
	"intraprep/internal/ratelimit"
	"intraprep/internal/server"
	"intraprep/internal/store"
	"intraprep/internal/util"
	"intraprep/pkg/ai"
	"intraprep/pkg/domain"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	sessionTTL, err := config.ParseDurationOr(cfg.SessionTTL, 7*24*time.Hour)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	signupCodeTTL, err := config.ParseDurationOr(cfg.SignupCodeTTL, 10*time.Minute)
	if err != nil {
		log.Fatalf("failed to parse signup code TTL: %v", err)
	}
	resetCodeTTL, err := config.ParseDurationOr(cfg.ResetCodeTTL, 15*time.Minute)
	if err != nil {
		log.Fatalf("failed to parse reset code TTL: %v", err)
	}
	otpResendWindow, err := config.ParseDurationOr(cfg.OTPResendWindow, time.Hour)
	if err != nil {
		log.Fatalf("failed to parse OTP resend window: %v", err)
	}

	var loc *time.Location
	if cfg.UsageTimezone != "" {
		loc, err = time.LoadLocation(cfg.UsageTimezone)
		if err != nil {
			log.Fatalf("failed to load usage timezone: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init database: %v", err)
		}
		st = gormStore
	} else {
		logger.Warn("no databaseURL configured, using in-memory store")
		st = store.NewMemoryStore()
	}

	var sessions store.SessionStore
	switch cfg.SessionStrategy {
	case "redis":
		sessions = store.NewRedisSessionStore(redisClient, sessionTTL)
	default:
		sessions = store.NewJWTSessionStore(cfg.SessionSecret, sessionTTL)
	}

	var generator ai.TextGenerator
	switch cfg.AIProvider {
	case "openai":
		generator = ai.NewOpenAICompatGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("failed to init gemini client: %v", err)
		}
		model := cfg.GeminiModel
		if model == "" {
			model = "gemini-2.0-flash"
		}
		generator = ai.NewGeminiGenerator(client, model)
	}
	generator = ai.NewRetryGenerator(generator, 3, 2*time.Second)

	mailer := mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)

	leetcodeEndpoint := cfg.LeetCodeEndpoint
	if leetcodeEndpoint == "" {
		leetcodeEndpoint = leetcode.DefaultEndpoint
	}
	coding := leetcode.NewClient(leetcodeEndpoint)

	var objects objstore.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = objstore.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
	}

	var syncQueue *queue.RedisJobQueue
	if redisClient != nil {
		consumer := cfg.SyncConsumer
		if consumer == "" {
			hostname, _ := os.Hostname()
			consumer = hostname
		}
		syncQueue, err = queue.NewRedisJobQueue(redisClient, queue.Config{
			Stream:     cfg.SyncStream,
			Group:      cfg.SyncGroup,
			Consumer:   consumer,
			MaxRetries: cfg.SyncMaxRetries,
		})
		if err != nil {
			log.Fatalf("failed to init sync queue: %v", err)
		}
	}

	var otpLimiter app.Limiter
	if redisClient != nil && cfg.OTPResendLimit > 0 {
		otpLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "intraprep:otp", cfg.OTPResendLimit, otpResendWindow)
		if err != nil {
			log.Fatalf("failed to init OTP limiter: %v", err)
		}
	}

	quotas := make(map[domain.ActionType]int)
	if cfg.PDFScanLimit > 0 {
		quotas[domain.ActionPDFScan] = cfg.PDFScanLimit
	}
	if cfg.JDMatchLimit > 0 {
		quotas[domain.ActionJDMatch] = cfg.JDMatchLimit
	}
	if cfg.BuilderAILimit > 0 {
		quotas[domain.ActionBuilderAI] = cfg.BuilderAILimit
	}

	appCfg := app.Config{
		Store:         st,
		Sessions:      sessions,
		Mailer:        mailer,
		Generator:     generator,
		Coding:        coding,
		Objects:       objects,
		OTPLimiter:    otpLimiter,
		Quotas:        quotas,
		Location:      loc,
		SignupCodeTTL: signupCodeTTL,
		ResetCodeTTL:  resetCodeTTL,
	}
	if syncQueue != nil {
		appCfg.SyncJobs = syncQueue
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	if err := appCore.SeedQuizzes(); err != nil {
		log.Fatalf("failed to seed quizzes: %v", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	var authLimiter server.Limiter
	if redisClient != nil && cfg.AuthRateLimitPerMinute > 0 {
		authLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "intraprep:auth", cfg.AuthRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init auth limiter: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		AuthLimiter:    authLimiter,
		TrustedProxies: trustedProxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if syncQueue != nil {
		g.Go(func() error {
			syncQueue.Start(ctx, cfg.SyncWorkers, func(ctx context.Context, job queue.JobStatus) error {
				return appCore.SyncUserProgress(ctx, job.UserID)
			})
			return nil
		})
	}
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
