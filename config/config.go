package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server struct {
		Port           string   `env:"SERVER_PORT" envDefault:"8080"`
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	Database struct {
		// Path of the sqlite file, ":memory:" for an ephemeral database
		Path string `env:"DATABASE_PATH" envDefault:"database/realty.db"`
	}

	Media struct {
		// Directory where uploaded images are written
		Dir string `env:"MEDIA_DIR" envDefault:"media"`

		// Public URL prefix the media directory is served under
		BaseURL string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	}

	Gallery struct {
		MaxFileBytes int64   `env:"GALLERY_MAX_FILE_BYTES" envDefault:"10485760"`
		Width        int     `env:"GALLERY_IMAGE_WIDTH" envDefault:"1080"`
		Height       int     `env:"GALLERY_IMAGE_HEIGHT" envDefault:"1080"`
		MinImages    int     `env:"GALLERY_MIN_IMAGES" envDefault:"2"`
		MaxImages    int     `env:"GALLERY_MAX_IMAGES" envDefault:"20"`
		QuotaGB      float64 `env:"STORAGE_QUOTA_GB" envDefault:"5"`
	}

	Generation struct {
		OpenAIKey   string `env:"OPENAI_API_KEY"`
		Model       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
		MaxVariants int    `env:"GENERATION_MAX_VARIANTS" envDefault:"3"`

		// Upper bound for a single generation call
		Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"45s"`
	}

	Sessions struct {
		IdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
		SweepSpec string        `env:"SESSION_SWEEP_SPEC" envDefault:"@every 5m"`
	}

	Flags struct {
		LaunchDarklyKey string        `env:"LD_SDK_KEY"`
		InitTimeout     time.Duration `env:"LD_INIT_TIMEOUT" envDefault:"5s"`

		// Used when no SDK key is configured
		MCMVEnabled      bool `env:"MCMV_MODULE_ENABLED" envDefault:"true"`
		ApprovalRequired bool `env:"PUBLIC_SITE_REQUIRES_APPROVAL" envDefault:"false"`
	}

	Geocoding struct {
		Enabled   bool   `env:"GEOCODING_ENABLED" envDefault:"true"`
		CacheDir  string `env:"GEOCODING_CACHE_DIR" envDefault:""`
		UserAgent string `env:"GEOCODING_USER_AGENT" envDefault:"RealtyWizard/1.0"`
		ViaCEPURL string `env:"VIACEP_URL" envDefault:"https://viacep.com.br/ws"`

		// Cron spec and batch size of the job that re-queues properties
		// saved without coordinates
		BackfillSpec  string `env:"GEOCODING_BACKFILL_SPEC" envDefault:"@hourly"`
		BackfillBatch int    `env:"GEOCODING_BACKFILL_BATCH" envDefault:"50"`
	}

	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	// BatchProcessing configures the background geocoding of saved properties
	BatchProcessing struct {
		// Capacity of the in-memory queue, in batches
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
