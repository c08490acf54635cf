package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	InventoryPolicyUnbounded = "unbounded"
	InventoryPolicyEnforce   = "enforce"

	CommentEditOpen   = "open"
	CommentEditAuthor = "author"
)

// Configはアプリ全体の設定
type Config struct {
	Port   string // サーバーポート（8080）
	GoEnv  string // dev/prod
	FEURL  string // CORS許可オリジン
	DB     DBConfig
	Redis  string // 空ならメモリキュー
	SMTP   SMTPConfig
	Notify NotifyConfig

	JWTSecret string // JWT署名シークレット

	// アクティベーションURLのテンプレート（{token} を置換）
	ActivationURL string

	Zarinpal     ZarinpalConfig
	CurrencyRate decimal.Decimal // 価格 → リアル換算

	CartInventoryPolicy string // unbounded / enforce
	CommentEditPolicy   string // open / author

	OTLPEndpoint string
	ServiceName  string
}

type DBConfig struct {
	URL      string // DATABASE_URL（最優先）
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type NotifyConfig struct {
	Workers     int
	MaxAttempts int
}

type ZarinpalConfig struct {
	MerchantID  string
	RequestURL  string
	VerifyURL   string
	StartPayURL string
	CallbackURL string
	Timeout     time.Duration
}

// Loadは環境変数（.env があれば先に読む）
func Load() (Config, error) {
	_ = godotenv.Load()

	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	smtpPort, err := atoiDefault("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	workers, err := atoiDefault("NOTIFY_WORKERS", 4)
	if err != nil {
		return Config{}, err
	}
	maxAttempts, err := atoiDefault("NOTIFY_MAX_ATTEMPTS", 5)
	if err != nil {
		return Config{}, err
	}
	timeoutSec, err := atoiDefault("ZARINPAL_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}

	rate, err := decimal.NewFromString(getenv("CURRENCY_RATE", "500000"))
	if err != nil {
		return Config{}, fmt.Errorf("CURRENCY_RATE must be number: %w", err)
	}

	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: os.Getenv("GO_ENV"),
		FEURL: getenv("FE_URL", "*"),

		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     pgPort,
			User:     getenv("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     getenv("POSTGRES_DB", "store"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: os.Getenv("REDIS_URL"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "no-reply@store.local"),
		},
		Notify: NotifyConfig{
			Workers:     workers,
			MaxAttempts: maxAttempts,
		},

		JWTSecret:     os.Getenv("JWT_SECRET"),
		ActivationURL: getenv("ACTIVATION_URL", "http://localhost:3000/activate/{token}"),

		Zarinpal: ZarinpalConfig{
			MerchantID:  os.Getenv("ZARINPAL_MERCHANT_ID"),
			RequestURL:  getenv("ZARINPAL_REQUEST_URL", "https://sandbox.zarinpal.com/pg/rest/WebGate/PaymentRequest.json"),
			VerifyURL:   getenv("ZARINPAL_VERIFY_URL", "https://sandbox.zarinpal.com/pg/rest/WebGate/PaymentVerification.json"),
			StartPayURL: getenv("ZARINPAL_STARTPAY_URL", "https://sandbox.zarinpal.com/pg/StartPay"),
			CallbackURL: os.Getenv("ZARINPAL_CALLBACK_URL"),
			Timeout:     time.Duration(timeoutSec) * time.Second,
		},
		CurrencyRate: rate,

		CartInventoryPolicy: getenv("CART_INVENTORY_POLICY", InventoryPolicyUnbounded),
		CommentEditPolicy:   getenv("COMMENT_EDIT_POLICY", CommentEditOpen),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getenv("SERVICE_NAME", "store-api"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.DB.URL == "" && c.DB.Password == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.GoEnv == "" {
		return fmt.Errorf("GO_ENV is required")
	}
	if c.Zarinpal.MerchantID == "" {
		return fmt.Errorf("ZARINPAL_MERCHANT_ID is required")
	}
	if c.Zarinpal.CallbackURL == "" {
		return fmt.Errorf("ZARINPAL_CALLBACK_URL is required")
	}
	if !c.CurrencyRate.IsPositive() {
		return fmt.Errorf("CURRENCY_RATE must be > 0")
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be >= 1")
	}
	if c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be >= 1")
	}

	switch c.CartInventoryPolicy {
	case InventoryPolicyUnbounded, InventoryPolicyEnforce:
	default:
		return fmt.Errorf("CART_INVENTORY_POLICY must be %q or %q", InventoryPolicyUnbounded, InventoryPolicyEnforce)
	}
	switch c.CommentEditPolicy {
	case CommentEditOpen, CommentEditAuthor:
	default:
		return fmt.Errorf("COMMENT_EDIT_POLICY must be %q or %q", CommentEditOpen, CommentEditAuthor)
	}
	return nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
