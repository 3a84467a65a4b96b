package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	Root string

	// Inputs.
	FleetCSV          string
	VehicleModelsJSON string
	IconDir           string
	IconExt           string
	// IconPathPrefix is the icon directory as recorded in result icon paths,
	// slash-separated and relative to Root.
	IconPathPrefix string

	// Outputs.
	CrossrefOutDir   string
	LookupOutJSON    string
	LookupIconPrefix string

	LogLevel  string
	LogFormat string

	MatchCacheSize int

	// Optional Kafka sink, disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaCoverageTopic string
	KafkaLookupTopic   string
	KafkaWriteTimeout  time.Duration

	// Optional Prometheus Pushgateway, disabled when empty.
	PushgatewayURL string
	PushgatewayJob string
}

// KafkaEnabled reports whether results should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// CoveredCSV is the covered-tier CSV written by crossref and read by lookup.
func (c *Config) CoveredCSV() string {
	return filepath.Join(c.CrossrefOutDir, "dvla_vehicle_icon_covered.csv")
}

// WeakCSV is the weak-match-tier CSV written by crossref and read by lookup.
func (c *Config) WeakCSV() string {
	return filepath.Join(c.CrossrefOutDir, "dvla_vehicle_icon_weak_matches.csv")
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	root := sharedcfg.EnvOrDefault("XREF_ROOT", ".")
	iconDir := sharedcfg.EnvOrDefault("ICON_DIR", "gfx/vehicle_icons/gran_turismo_200_circle")

	kafkaTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("KAFKA_WRITE_TIMEOUT", "10s"))
	if err != nil || kafkaTimeout <= 0 {
		return nil, errors.New("invalid KAFKA_WRITE_TIMEOUT")
	}

	cacheSize, err := parseMatchCacheSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Root:              root,
		FleetCSV:          resolve(root, sharedcfg.EnvOrDefault("DVLA_CSV", "data/DVLA/df_VEH0124.csv")),
		VehicleModelsJSON: resolve(root, sharedcfg.EnvOrDefault("VEHICLE_MODELS_JSON", "data/vehicle_models.json")),
		IconDir:           resolve(root, iconDir),
		IconExt:           strings.ToLower(sharedcfg.EnvOrDefault("ICON_EXT", ".png")),
		IconPathPrefix:    iconPathPrefix(root, iconDir),
		CrossrefOutDir:    resolve(root, sharedcfg.EnvOrDefault("CROSSREF_OUT_DIR", "data/dvla_icon_crossref")),
		LookupOutJSON:     resolve(root, sharedcfg.EnvOrDefault("LOOKUP_OUT_JSON", "data/dvla_vehicle_icon_lookup.json")),
		LookupIconPrefix:  sharedcfg.EnvOrDefault("LOOKUP_ICON_PREFIX", "gfx/vehicle_icons/"),

		LogLevel:  strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "text")),

		MatchCacheSize: cacheSize,

		KafkaBrokers:       brokers,
		KafkaCoverageTopic: sharedcfg.EnvOrDefault("KAFKA_COVERAGE_TOPIC", "vehicle-icon-coverage"),
		KafkaLookupTopic:   sharedcfg.EnvOrDefault("KAFKA_LOOKUP_TOPIC", "vehicle-icon-lookup"),
		KafkaWriteTimeout:  kafkaTimeout,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		PushgatewayJob: sharedcfg.EnvOrDefault("PUSHGATEWAY_JOB", "vehicle_icon_xref"),
	}

	if !strings.HasPrefix(cfg.IconExt, ".") {
		return nil, errors.New("ICON_EXT must start with a dot")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid LOG_LEVEL")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, errors.New("invalid LOG_FORMAT")
	}
	if cfg.KafkaEnabled() && (cfg.KafkaCoverageTopic == "" || cfg.KafkaLookupTopic == "") {
		return nil, errors.New("KAFKA_COVERAGE_TOPIC and KAFKA_LOOKUP_TOPIC are required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseMatchCacheSize() (int, error) {
	s := os.Getenv("MATCH_CACHE_SIZE")
	if s == "" {
		return 512, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid MATCH_CACHE_SIZE")
	}
	return n, nil
}

// resolve anchors relative paths at root.
func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// iconPathPrefix returns the icon directory as it should appear in result
// icon paths: slash-separated and relative to root where possible.
func iconPathPrefix(root, iconDir string) string {
	if !filepath.IsAbs(iconDir) {
		return strings.TrimSuffix(filepath.ToSlash(filepath.Clean(iconDir)), "/")
	}
	if absRoot, err := filepath.Abs(root); err == nil {
		if rel, err := filepath.Rel(absRoot, iconDir); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(iconDir)
}
