package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/storefront/docs"
	"github.com/aaravmahajanofficial/storefront/internal/api"
	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/health"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/tracing"
	"github.com/aaravmahajanofficial/storefront/pkg/events"
	"github.com/aaravmahajanofficial/storefront/pkg/paystack"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
	"github.com/aaravmahajanofficial/storefront/pkg/stripe"
)

//	@title						Storefront API
//	@version					1.0
//	@description				Catalog, cart and checkout API for the storefront.
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	// Tracing
	shutdownTracing, err := tracing.Setup(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	if err := repository.Migrate(ctx, repos.DB); err != nil {
		slog.Error("❌ Error applying database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimitRepo := repository.NewRateLimitRepo(redisClient, cfg)
	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	defer func() {
		if err := redisCache.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	gateway, err := newPaymentGateway(cfg)
	if err != nil {
		slog.Error("❌ Error configuring the payment gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	jwtKey := []byte(cfg.Security.JWTKey)
	jwtTTL := time.Duration(cfg.Security.JWTExpiryHours) * time.Hour
	emailService := sendgrid.NewEmailService(sendgrid.Config{
		APIKey:    cfg.SendGrid.APIKey,
		FromEmail: cfg.SendGrid.FromEmail,
		FromName:  cfg.SendGrid.FromName,
		ReplyTo:   cfg.SendGrid.ReplyTo,
		Sandbox:   cfg.SendGrid.Sandbox,
	})
	checkoutCfg := service.CheckoutConfig{BaseURL: cfg.App.BaseURL, Currency: cfg.Payment.Currency}

	notificationService := service.NewNotificationService(repos.Notification, emailService, cfg.App.BaseURL)
	userService := service.NewUserService(repos.User, rateLimitRepo, notificationService, jwtKey, jwtTTL)
	addressService := service.NewAddressService(repos.Address)
	productService := service.NewProductService(repos.Product, redisCache)
	categoryService := service.NewCategoryService(repos.Category, redisCache)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	orderService := service.NewOrderService(repos.Order, repos.User, repos.Address, repos.Cart, repos.Product, gateway, publisher, checkoutCfg)
	paymentService := service.NewPaymentService(repos.Order, repos.User, gateway, notificationService, publisher, redisCache)

	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthChecks, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("version", cfg.App.Version),
		slog.String("paymentProvider", gateway.Name()),
	)

	// Setup router
	routerMux := api.NewRouter(api.Handlers{
		User:         handlers.NewUserHandler(userService, addressService),
		Product:      handlers.NewProductHandler(productService),
		Category:     handlers.NewCategoryHandler(categoryService),
		Cart:         handlers.NewCartHandler(cartService),
		Order:        handlers.NewOrderHandler(orderService),
		Payment:      handlers.NewPaymentHandler(paymentService),
		Notification: handlers.NewNotificationHandler(notificationService),
	}, authMiddleware, healthChecks.Handler())

	stopCleanup := make(chan struct{})

	var limiter *middleware.RateLimiter
	if cfg.APIRateLimit.Enabled {
		trustedProxies, err := middleware.ParseTrustedProxies(cfg.APIRateLimit.TrustedProxies)
		if err != nil {
			slog.Error("❌ Error parsing trusted proxies", slog.String("error", err.Error()))
			os.Exit(1)
		}
		limiter = middleware.NewRateLimiter(cfg.APIRateLimit.RPS, cfg.APIRateLimit.Burst, trustedProxies...)
		go limiter.RunCleanup(time.Minute, stopCleanup)
	}

	// Setup http server
	server := http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      api.Wrap(routerMux, limiter, cfg.Otel.ServiceName),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.HTTPServer.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")
	close(stopCleanup)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}

func newPaymentGateway(cfg *config.Config) (service.PaymentGateway, error) {
	switch strings.ToLower(cfg.Payment.Provider) {
	case "paystack":
		if cfg.Paystack.SecretKey == "" {
			return nil, fmt.Errorf("paystack secret key is not configured")
		}
		return paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL), nil
	case "stripe":
		if cfg.Stripe.APIKey == "" {
			return nil, fmt.Errorf("stripe api key is not configured")
		}
		return stripe.NewGateway(cfg.Stripe.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		slog.Info("Kafka brokers not configured, order events are disabled")
		return events.NoopPublisher{}
	}

	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}
