package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the port the local HTTP gateway binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// DataDir holds the rule store and audit databases.
	DataDir string `koanf:"data_dir" validate:"required"`

	// RefreshSeconds is the rule cache refresh cadence.
	RefreshSeconds int `koanf:"refresh_seconds" validate:"required,gte=5,lte=3600"`

	// ClassifierCacheSize bounds the per-snapshot verdict cache (0 disables).
	ClassifierCacheSize int `koanf:"classifier_cache_size" validate:"gte=0"`

	// AuditQueueSize bounds the async audit writer queue.
	AuditQueueSize int `koanf:"audit_queue_size" validate:"required,gte=1"`

	// Latitude/Longitude/Timezone describe the child's location for prayer
	// time computation. All three zero/empty means prayer pausing is off.
	Latitude  float64 `koanf:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `koanf:"longitude" validate:"gte=-180,lte=180"`
	Timezone  string  `koanf:"timezone"`

	// Method selects the prayer calculation convention.
	Method string `koanf:"method" validate:"required,oneof=mwl isna egypt makkah karachi"`

	// AsrSchool selects the Asr shadow-factor juridical school.
	AsrSchool string `koanf:"asr_school" validate:"required,oneof=standard hanafi"`
}

// envLoader loads environment variables with the prefix "GUARDIAN_",
// transforming keys to lowercase with the prefix removed.
// It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "GUARDIAN_",
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, "GUARDIAN_")), value
		},
	}), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	k.Load(structs.Provider(AppConfig{
		Env:                 "prod",
		LogLevel:            "info",
		Port:                8643,
		DataDir:             "/var/lib/guardian",
		RefreshSeconds:      30,
		ClassifierCacheSize: 512,
		AuditQueueSize:      256,
		Method:              "mwl",
		AsrSchool:           "standard",
	}, "koanf"), nil)

	err := envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
