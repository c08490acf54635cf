package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/handler"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/db"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/gateway"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/logger"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/mailer"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/queue"
	infraRepo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/repository"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/telemetry"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/notification"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/server"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
	auth "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase/auth_usecase"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// アクセストークン
const accessTTL = 15 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	//DB接続
	gormDB, err := db.Connect(cfg.DB, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//通知キュー（REDIS_URL が無ければメモリ）
	var q notification.Queue
	if cfg.Redis != "" {
		rdb, err := queue.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		q = queue.NewRedisQueue(rdb, "notifications")
	} else {
		log.Warn("REDIS_URL is empty, using in-memory notification queue")
		q = queue.NewMemoryQueue()
	}

	var sender notification.Sender
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(cfg.SMTP)
	} else {
		log.Warn("SMTP_HOST is empty, activation mails are only logged")
		sender = mailer.NewLogSender(log)
	}

	dispatcher := notification.NewDispatcher(q, sender, notification.Options{
		Workers:     cfg.Notify.Workers,
		MaxAttempts: cfg.Notify.MaxAttempts,
	}, log.Named("notification"))

	if cfg.CommentEditPolicy == config.CommentEditOpen {
		log.Warn("COMMENT_EDIT_POLICY=open: any authenticated user can edit or delete any comment")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	commentRepo := infraRepo.NewCommentGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(
		userRepo,
		auth.NewBcryptPasswordHasher(12),
		&uuidGenerator{},
		dispatcher,
		cfg.ActivationURL,
		log.Named("auth"),
	)
	activateUC := auth.NewActivateUserUsecase(userRepo)
	loginUC := auth.NewLoginUsecase(
		userRepo,
		auth.NewBcryptPasswordVerifier(),
		auth.NewJWTIssuer(cfg.JWTSecret, accessTTL),
		&realClock{},
	)

	catalogUC := usecase.NewCatalogUsecase(categoryRepo, productRepo, txm, log.Named("catalog"))
	commentUC := usecase.NewCommentUsecase(commentRepo, productRepo, cfg.CommentEditPolicy)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, txm, cfg.CartInventoryPolicy)
	customerUC := usecase.NewCustomerUsecase(customerRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, customerRepo, log.Named("order"))
	paymentUC := usecase.NewPaymentUsecase(
		orderRepo,
		gateway.NewZarinpalClient(cfg.Zarinpal),
		cfg.CurrencyRate,
		cfg.Zarinpal.CallbackURL,
		log.Named("payment"),
	)

	//Handler生成
	e := server.New(cfg, log, server.Handlers{
		Health:       handler.NewHealthHandler(sqlDB),
		Auth:         handler.NewAuthHandler(registerUC, activateUC, loginUC),
		Category:     handler.NewCategoryHandler(catalogUC),
		Product:      handler.NewProductHandler(catalogUC),
		AdminProduct: handler.NewAdminProductHandler(catalogUC),
		Comment:      handler.NewCommentHandler(commentUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Customer:     handler.NewCustomerHandler(customerUC),
	})

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return server.Start(gctx, e, addr, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", zap.Error(err))
		return err
	}
	log.Info("bye")
	return nil
}
