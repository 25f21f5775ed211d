package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"WhatsApp Admin Assistant"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"billbot"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Session struct {
		Timeout        time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
		ResetOnStartup bool          `envconfig:"SESSION_RESET_ON_STARTUP" default:"true"`
	}

	Admin struct {
		Phone        string `envconfig:"ADMIN_PHONE"`
		Username     string `envconfig:"ADMIN_USERNAME" default:"admin"`
		PasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	}

	Billing struct {
		Recipient string `envconfig:"BILLING_RECIPIENT_EMAIL"`
	}

	Twilio struct {
		AccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
		AuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
		From        string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
		MockMode    bool   `envconfig:"TWILIO_MOCK_MODE" default:"true"`
		ValidateSig bool   `envconfig:"TWILIO_VALIDATE_SIGNATURE" default:"false"`
		PublicURL   string `envconfig:"TWILIO_WEBHOOK_PUBLIC_URL"`
	}

	Mail struct {
		Host     string `envconfig:"SMTP_HOST" default:"localhost"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"MAIL_FROM" default:"billing@localhost"`
		MockMode bool   `envconfig:"MAIL_MOCK_MODE" default:"true"`
	}

	Auth struct {
		Secret     string        `envconfig:"JWT_SECRET"`
		Expiration time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
	}

	RateLimit struct {
		Requests int           `envconfig:"WEBHOOK_RATE_LIMIT" default:"30"`
		Window   time.Duration `envconfig:"WEBHOOK_RATE_WINDOW" default:"1m"`
	}

	NATS struct {
		URL     string `envconfig:"NATS_URL"`
		Subject string `envconfig:"NATS_SUBJECT" default:"billing.authorization.completed"`
		Token   string `envconfig:"NATS_TOKEN"`
	}

	Scheduler struct {
		Enabled  bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
		Timezone string `envconfig:"SCHEDULER_TIMEZONE" default:"Europe/Rome"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
