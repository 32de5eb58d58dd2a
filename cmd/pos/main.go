// 收银服务主程序
// 功能：商品目录、收银会话与购物车、销售提交、看板与区间报表、发票与表格导出
// 架构：DDD 分层 + Gin HTTP + gRPC 健康检查 + 可选 Redis/Kafka
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	cartapp "github.com/wyfcoding/posregister/internal/cart/application"
	"github.com/wyfcoding/posregister/internal/cart/infrastructure/memory"
	carthttp "github.com/wyfcoding/posregister/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/posregister/internal/catalog/application"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	catalogrepo "github.com/wyfcoding/posregister/internal/catalog/infrastructure/repository"
	cataloghttp "github.com/wyfcoding/posregister/internal/catalog/interfaces/http"
	"github.com/wyfcoding/posregister/internal/document"
	saleapp "github.com/wyfcoding/posregister/internal/sale/application"
	sale "github.com/wyfcoding/posregister/internal/sale/domain"
	salecache "github.com/wyfcoding/posregister/internal/sale/infrastructure/cache"
	"github.com/wyfcoding/posregister/internal/sale/infrastructure/invoice"
	salerepo "github.com/wyfcoding/posregister/internal/sale/infrastructure/repository"
	salehttp "github.com/wyfcoding/posregister/internal/sale/interfaces/http"
	"github.com/wyfcoding/posregister/pkg/cache"
	"github.com/wyfcoding/posregister/pkg/config"
	"github.com/wyfcoding/posregister/pkg/db"
	"github.com/wyfcoding/posregister/pkg/logger"
	"github.com/wyfcoding/posregister/pkg/metrics"
	"github.com/wyfcoding/posregister/pkg/middleware"
	"github.com/wyfcoding/posregister/pkg/mq"
	"github.com/wyfcoding/posregister/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	// 健康检查探测数据库的间隔
	healthCheckInterval = 10 * time.Second
	// outbox 每轮投递条数与轮询间隔
	outboxBatchSize = 100
	outboxInterval  = 2 * time.Second
)

// dashboardCache 同时接收销售提交与商品变动的失效通知
type dashboardCache interface {
	sale.DashboardCache
	catalog.ChangeListener
}

type app struct {
	cfg      *config.Config
	database *db.DB
	metrics  *metrics.Metrics
	limiter  ratelimit.RateLimiter
	catalog  *catalogapp.CatalogApplicationService
	carts    *cartapp.CartApplicationService
	sales    *saleapp.SaleApplicationService
	exporter *document.Exporter
	closers  []func() error
}

func main() {
	configPath := flag.String("config", "configs/pos/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting POS service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	a, err := build(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize service", "error", err)
	}
	defer a.close(ctx)

	if err := a.run(ctx); err != nil {
		logger.Error(ctx, "POS service exited with error", "error", err)
		a.close(ctx)
		os.Exit(1)
	}
	logger.Info(ctx, "POS service stopped")
}

// build 按配置装配各层依赖
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	loc, err := cfg.Sale.Location()
	if err != nil {
		return nil, err
	}

	// 数据库
	database, err := db.Open(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return nil, err
	}
	a.database = database
	a.closers = append(a.closers, database.Close)

	models := append([]any{&catalog.Product{}, &outbox.Message{}}, sale.Models()...)
	if err := database.AutoMigrate(models...); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// 指标
	a.metrics = metrics.New(cfg.ServiceName)
	if err := a.metrics.Register(); err != nil {
		a.close(ctx)
		return nil, err
	}

	// Redis：看板缓存与分布式限流，未启用时退化为不缓存与进程内限流
	var dashboards dashboardCache = salecache.NopDashboardCache{}
	a.limiter = ratelimit.NewLocalRateLimiter()
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			Prefix:       cfg.ServiceName + ":",
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, redisCache.Close)
		dashboards = salecache.NewDashboardCache(redisCache, time.Duration(cfg.Redis.DashboardTTL)*time.Second)
		a.limiter = ratelimit.NewRedisRateLimiter(redisCache.Client())
	}

	// 领域事件先随业务事务写入 outbox，再由投递器推给 Kafka；未启用 Kafka 时只记日志
	outboxMgr := outbox.NewManager(database.DB, logger.Get())
	publisher := mq.NewOutboxPublisher(outboxMgr)
	push := mq.LogPublisher{}.Push
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			TopicPrefix:  cfg.Kafka.TopicPrefix,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		a.closers = append(a.closers, producer.Close)
		push = producer.Push
	}
	relay := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return push(ctx, topic, key, payload)
	}, outboxBatchSize, outboxInterval)
	relay.Start()
	a.closers = append(a.closers, func() error {
		relay.Stop()
		return nil
	})

	invoices, err := invoice.NewGenerator(cfg.Sale.InvoiceNode)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	// 仓储与应用服务
	products := catalogrepo.NewProductRepository(database.DB)
	sales := salerepo.NewSaleRepository(database.DB)

	a.exporter = document.NewExporter(document.ShopInfo{
		Name:     cfg.Shop.Name,
		Address:  cfg.Shop.Address,
		Phone:    cfg.Shop.Phone,
		Currency: cfg.Shop.Currency,
		LogoPath: cfg.Shop.LogoPath,
	}, a.metrics)

	a.catalog = catalogapp.NewCatalogApplicationService(database, products, publisher, dashboards)
	a.carts = cartapp.NewCartApplicationService(memory.NewSessionStore(), products, publisher, a.metrics)

	engine := saleapp.NewSaleCommandService(database, sales, products, invoices, publisher, dashboards, a.metrics, loc)
	ledger := saleapp.NewLedgerQueryService(database, sales, products, dashboards, saleapp.ReportOptions{
		LowStockThreshold: cfg.Sale.LowStockThreshold,
		TopSellersLimit:   cfg.Sale.TopSellersLimit,
		Location:          loc,
	})
	documents := saleapp.NewDocumentService(ledger, a.exporter)
	a.sales = saleapp.NewSaleApplicationService(engine, ledger, documents, a.carts)

	if cfg.Sale.SeedDemo {
		n, err := a.catalog.SeedDemo(ctx)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to seed demo products: %w", err)
		}
		if n > 0 {
			logger.Info(ctx, "Demo products seeded", "count", n)
		}
	}

	return a, nil
}

// run 启动 HTTP 与 gRPC 服务，收到信号或任一服务出错后优雅关停
func (a *app) run(ctx context.Context) error {
	cfg := a.cfg
	httpServer := a.httpServer()
	grpcServer, healthServer := a.grpcServer()

	grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC address: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(ctx, "Starting gRPC server", "addr", grpcAddr)
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.checkHealth(ctx, healthServer)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info(context.Background(), "Shutting down POS service")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

// httpServer 创建 HTTP 服务器
func (a *app) httpServer() *http.Server {
	cfg := a.cfg
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinRequestID())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(a.metrics))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(a.limiter, cfg.RateLimit))
	cataloghttp.NewCatalogHandler(a.catalog, a.exporter).RegisterRoutes(api)
	carthttp.NewCartHandler(a.carts).RegisterRoutes(api)
	salehttp.NewSaleHandler(a.sales).RegisterRoutes(api)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(a.metrics.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		if err := a.database.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"sessions":  a.carts.ActiveSessions(c.Request.Context()),
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// grpcServer 创建只承载健康检查与反射的 gRPC 服务器
func (a *app) grpcServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCLoggingInterceptor(),
		middleware.GRPCRecoveryInterceptor(),
	))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	return server, healthServer
}

// checkHealth 周期性探测数据库，更新 gRPC 健康状态
func (a *app) checkHealth(ctx context.Context, hs *health.Server) {
	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.database.Ping(pingCtx); err != nil {
			logger.Warn(ctx, "Database health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(a.cfg.ServiceName, status)
	}

	check()
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// close 逆序释放资源，可重复调用
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn(ctx, "Failed to release resource", "error", err)
		}
	}
	a.closers = nil
}
