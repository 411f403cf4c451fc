package appcontext

import (
	"context"
	"errors"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/config"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/producer"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/qrcode"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/redis_repo"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type ApplicationContext struct {
	Cf               *config.Config
	Logger           *zerolog.Logger
	DbDao            *db.UnifiedDBImpl
	RedisClient      *redis.Client
	PollGate         *redis_repo.PollGate
	Publisher        producer.Publisher
	Gateway          *payway.Client
	MockQR           *qrcode.MockGenerator
	LedgerService    *service.LedgerService
	ReceiptService   *service.ReceiptService
	ReconcileService *service.ReconcileService
	CheckoutService  *service.CheckoutService
}

func NewApplicationContext(cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}
	logger.Info().
		Str("app_env", cf.AppEnv).
		Str("db_driver", cf.DbDriver).
		Str("payway_base_url", cf.PaywayBaseURL).
		Str("payway_merchant_id", cf.PaywayMerchantID).
		Bool("poll_gate", cf.RedisAddr != "").
		Bool("events", len(cf.KafkaBrokerList()) > 0).
		Msg("loading application context")

	if err := app.Init(); err != nil {
		// 已經建立的連線要釋放
		app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	err := app.setUpDbDao()
	if err != nil {
		return err
	}
	err = app.setUpPollGate()
	if err != nil {
		return err
	}
	err = app.setUpPublisher()
	if err != nil {
		return err
	}
	err = app.setUpGateway()
	if err != nil {
		return err
	}
	err = app.setUpServices()
	if err != nil {
		return err
	}
	return nil
}

// OpenDB 給只需要資料庫的指令使用
func OpenDB(cf *config.Config) (*db.UnifiedDBImpl, error) {
	conn, err := db.Open(cf.DbDriver, cf.SqlitePath, cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
	if err != nil {
		return nil, err
	}
	return db.NewUnifiedDB(conn), nil
}

func (app *ApplicationContext) setUpDbDao() error {
	app.Logger.Info().Msg("Start setup database")
	dao, err := OpenDB(app.Cf)
	if err != nil {
		return err
	}
	app.DbDao = dao
	app.Logger.Info().Msg("Finish setup database")
	return nil
}

func (app *ApplicationContext) setUpPollGate() error {
	if app.Cf.RedisAddr == "" {
		app.Logger.Info().Msg("redis address is empty, poll gate disabled")
		return nil
	}
	app.Logger.Info().Msg("Start setup poll gate")
	app.RedisClient = redis_repo.NewRedisClient(app.Cf.RedisAddr,
		redis_repo.WithPassword(app.Cf.RedisPassword),
		redis_repo.WithDB(app.Cf.RedisDB),
	)
	app.PollGate = redis_repo.NewPollGate(app.RedisClient, redis_repo.DefaultPollGatePrefix, app.Cf.PollMinInterval)
	app.Logger.Info().Msg("Finish setup poll gate")
	return nil
}

func (app *ApplicationContext) setUpPublisher() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Info().Msg("kafka brokers is empty, payment events disabled")
		app.Publisher = producer.NoopPublisher{}
		return nil
	}
	app.Logger.Info().Msg("Start setup kafka producer")
	cfg := producer.DefaultConfig()
	cfg.Brokers = brokers
	cfg.Topic = app.Cf.KafkaTopic
	p, err := producer.New(cfg, app.Logger)
	if err != nil {
		return err
	}
	app.Publisher = p
	app.Logger.Info().Msg("Finish setup kafka producer")
	return nil
}

func (app *ApplicationContext) setUpGateway() error {
	app.Logger.Info().Msg("Start setup payment gateway client")
	if app.Cf.PaywayMerchantID == "" || app.Cf.PaywayAPIKey == "" {
		if !app.Cf.IsDevelopment() {
			return errors.New("payway merchant id and api key are required")
		}
		app.Logger.Warn().Msg("payway credentials are empty, checkout will fall back to mock QR")
	}
	app.Gateway = payway.NewClient(payway.Config{
		BaseURL:         app.Cf.PaywayBaseURL,
		MerchantID:      app.Cf.PaywayMerchantID,
		APIKey:          app.Cf.PaywayAPIKey,
		CallbackURL:     app.Cf.PaywayCallbackURL,
		Timeout:         app.Cf.PaywayTimeout,
		Lifetime:        app.Cf.PaywayQRLifetime,
		QRImageTemplate: app.Cf.PaywayQRTemplate,
	})
	if app.Cf.IsDevelopment() {
		app.MockQR = qrcode.NewMockGenerator(app.Cf.ShopName)
	}
	app.Logger.Info().Msg("Finish setup payment gateway client")
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.Logger.Info().Msg("Start setup services")
	dev := app.Cf.IsDevelopment()

	app.LedgerService = service.NewLedgerService(app.DbDao, app.Publisher, app.Logger)
	app.ReceiptService = service.NewReceiptService(app.DbDao, app.DbDao, app.Publisher, app.Logger)

	options := []service.ReconcileOption{service.WithDevMode(dev)}
	if app.PollGate != nil {
		options = append(options, service.WithPollGate(app.PollGate))
	}
	app.ReconcileService = service.NewReconcileService(app.LedgerService, app.ReceiptService, app.Gateway, app.Logger, options...)

	// interface 不能放 typed nil
	var mockQR service.MockQRGenerator
	if app.MockQR != nil {
		mockQR = app.MockQR
	}
	app.CheckoutService = service.NewCheckoutService(app.DbDao, app.LedgerService, app.Gateway, mockQR, service.CheckoutConfig{
		Currency:      app.Cf.PaywayCurrency,
		PaymentOption: app.Cf.PaywayPaymentOption,
		DevMode:       dev,
	}, app.Logger)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)
		var errs []error

		//有錯誤不結束流程
		if app.Publisher != nil {
			app.Logger.Info().Msg("Closing payment event publisher...")
			if err := app.Publisher.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if app.RedisClient != nil {
			app.Logger.Info().Msg("Closing redis client...")
			if err := app.RedisClient.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if app.DbDao != nil {
			app.Logger.Info().Msg("Closing database...")
			if err := app.DbDao.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.Logger.Error().Err(err).Msg("application shutdown with errors")
			return err
		}
		app.Logger.Info().Msg("Application shutdown completed")
		return nil
	case <-ctx.Done():
		app.Logger.Warn().Msg("Application shutdown timed out")
		return ctx.Err()
	}
}
