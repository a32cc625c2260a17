package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/travatlanta/Sticky-sub003/internal/cache"
	"github.com/travatlanta/Sticky-sub003/internal/config"
	"github.com/travatlanta/Sticky-sub003/internal/consumer"
	storegrpc "github.com/travatlanta/Sticky-sub003/internal/grpc"
	storehttp "github.com/travatlanta/Sticky-sub003/internal/http"
	"github.com/travatlanta/Sticky-sub003/internal/notifier"
	"github.com/travatlanta/Sticky-sub003/internal/publisher"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/service"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

var (
	skipPublisher bool
	skipConsumer  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront API",
	Long: `Start the storefront which provides:
- REST API for the shop and the admin back office
- gRPC health endpoint for probes
- outbox publisher moving order events to Kafka
- notification consumer turning those events into in-app notices and email`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&skipPublisher, "no-publisher", false, "do not run the outbox publisher in this process")
	serveCmd.Flags().BoolVar(&skipConsumer, "no-consumer", false, "do not run the Kafka consumers (notifications, cart cleanup) in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set")
	}
	taxRate, err := cfg.TaxRate()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())
	log.Info().Str("uri", cfg.Mongo.URI).Msg("connected to mongodb")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// cart reads fall through to MongoDB and checkout dedup falls back
		// to the orders.idempotency_key unique index
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, continuing without cache")
	}

	settings := shipping.NewFileStore(cfg.Shipping.SettingsPath, log)
	activity := service.NewActivityRecorder(repo)

	carts := service.NewCartService(repository.NewMongoCartRepository(mongoDB), cache.NewRedisCache(redisClient), repo, repo)
	catalog := service.NewCatalogService(repo, activity)
	checkout := service.NewCheckoutService(carts, repo, repo, repo, cache.NewRedisIdempotency(redisClient), settings, taxRate)
	orders := service.NewOrderService(repo, activity)
	artwork := service.NewArtworkService(repo, repo, activity)
	designs := service.NewDesignService(repo)
	promotions := service.NewPromotionService(repo, repo, activity)
	backOffice := service.NewBackOfficeService(repo, repo, settings, activity)

	router := storehttp.NewRouter(storehttp.RouterConfig{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		SecureCookies:  true,
	}, storehttp.Handlers{
		Catalog:    storehttp.NewCatalogHandler(catalog),
		Cart:       storehttp.NewCartHandler(carts),
		Checkout:   storehttp.NewCheckoutHandler(checkout),
		Orders:     storehttp.NewOrdersHandler(orders, artwork),
		Payments:   storehttp.NewPaymentsHandler(orders, cfg.Payments.WebhookSecret),
		BackOffice: storehttp.NewBackOfficeHandler(promotions, backOffice, designs),
		DB:         repo,
	}, log)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcSrv := storegrpc.NewServer(repo, 10*time.Second, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return grpcSrv.Serve(gctx, grpcLis)
	})

	if !skipPublisher {
		poller := publisher.NewOutboxPoller(repo, publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...),
			cfg.Outbox.Interval, cfg.Outbox.BatchSize, log)
		g.Go(func() error {
			defer poller.Close()
			poller.Run(gctx)
			return nil
		})
	}
	if !skipConsumer {
		notifications := consumer.NewConsumer(
			notifier.NewDispatcher(repo, repo, emailSender(cfg, log), cfg.Email.AdminRecipients, log),
			consumer.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...),
			log,
		)
		g.Go(func() error {
			defer notifications.Close()
			notifications.Run(gctx)
			return nil
		})

		cleanup := consumer.NewCartCleanup(carts,
			consumer.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.GroupID+"-carts", cfg.Kafka.Brokers...), log)
		g.Go(func() error {
			defer cleanup.Close()
			cleanup.Run(gctx)
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down storefront...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		grpcSrv.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("storefront stopped with error")
		return err
	}
	log.Info().Msg("storefront stopped")
	return nil
}

func emailSender(cfg *config.Config, log zerolog.Logger) notifier.EmailSender {
	if cfg.Email.Endpoint == "" {
		return notifier.LogSender{Log: log}
	}
	return notifier.NewHTTPEmailClient(notifier.EmailConfig{
		Endpoint: cfg.Email.Endpoint,
		APIKey:   cfg.Email.APIKey,
		From:     cfg.Email.From,
		Timeout:  cfg.Email.Timeout,
	}, log)
}
