package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/uma-arai/sbcntr-stay/internal/common/database"
)

// StayConfig は予約フローの動作設定です
type StayConfig struct {
	ReservationDelay time.Duration `env:"STAY_RESERVATION_DELAY" envDefault:"1s"`
	DenyPolicy       string        `env:"STAY_DENY_POLICY" envDefault:"any"`
	FirstFee         int           `env:"STAY_FIRST_FEE" envDefault:"10"`
	RepeatFee        int           `env:"STAY_REPEAT_FEE" envDefault:"5"`
	StopOnError      bool          `env:"STAY_STOP_ON_ERROR" envDefault:"false"`
}

type Config struct {
	DB  database.Config
	SFN struct {
		TaskToken string
	}
	Stay StayConfig
	// Persist が false の場合、通知とチェックイン記録をDBに保存しません
	Persist       bool `env:"STAY_PERSIST" envDefault:"true"`
	EnableTracing bool
}

// LoadConfig は設定を読み込みます
func LoadConfig(taskToken string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.SFN.TaskToken = taskToken

	// 環境変数[SBCNTR_ENABLE_TRACING]を見てトレースを有効にする。対応しているTracingはAWS_XRAYのみ。
	// 環境変数[AWS_XRAY_SDK_DISABLED]がtrueの場合は必ずトレースを無効にする。
	enableKey := os.Getenv("SBCNTR_ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

// Check if SDK is disabled
func sdkDisabled() bool {
	disableKey := os.Getenv("AWS_XRAY_SDK_DISABLED")
	return strings.ToLower(disableKey) == "true"
}
