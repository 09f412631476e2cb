package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	CapitalAPIKey     string        `env:"CAPITAL_API_KEY,required,notEmpty"`
	CapitalIdentifier string        `env:"CAPITAL_IDENTIFIER,required,notEmpty"`
	CapitalPassword   string        `env:"CAPITAL_PASSWORD,required,notEmpty"`
	CapitalEndpoint   string        `env:"CAPITAL_API_ENDPOINT" envDefault:"https://demo-api-capital.backend-capital.com/api/v1"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	Port              string        `env:"PORT" envDefault:"8080"`
	CORSOrigin        string        `env:"CORS_ORIGIN" envDefault:"*"`
	EpicMap           string        `env:"EPIC_MAP"`
	GuaranteedStop    bool          `env:"GUARANTEED_STOP" envDefault:"false"`
	TimeInForce       string        `env:"TIME_IN_FORCE"`
	SearchFallback    bool          `env:"SEARCH_FALLBACK" envDefault:"true"`
	SearchCacheTTL    time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"5m"`
	KafkaBrokers      string        `env:"KAFKA_BROKERS"`
	KafkaTopic        string        `env:"KAFKA_TOPIC" envDefault:"order-events"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.CapitalEndpoint = strings.TrimRight(cfg.CapitalEndpoint, "/")
	return cfg, nil
}

// EpicOverrides parses EPIC_MAP ("XAUUSD:GOLD,US500:US500") into a table
// merged over the built-in instrument mapping.
func (c Config) EpicOverrides() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(c.EpicMap) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(c.EpicMap, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid EPIC_MAP entry %q (want TICKER:EPIC)", pair)
		}
		out[strings.ToUpper(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
	}
	return out, nil
}

// Brokers splits KAFKA_BROKERS; empty result means the publisher stays off.
func (c Config) Brokers() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
