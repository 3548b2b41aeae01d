package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	DBURL                       string
	DBDisablePreparedBinary     bool
	CacheEnabled                bool
	CacheTTL                    time.Duration
	CORSAllowedOrigins          []string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	PprofEnabled                bool
	PprofAddr                   string
	SwaggerEnabled              bool
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	EdinetBaseURL               string
	EdinetAPIKey                string
	EdinetTimeout               time.Duration
	EdinetMaxAttempts           int
	EdinetBackoffBase           time.Duration
	EdinetRateLimit             float64
	EdinetCircuitEnabled        bool
	EdinetCircuitFailureCount   int
	EdinetCircuitOpenTimeout    time.Duration
	EdinetCircuitHalfOpenMaxReq int
	OpenAIAPIKey                string
	OpenAIBaseURL               string
	OpenAITimeout               time.Duration
	LLMPrimaryModel             string
	LLMFallbackModel            string
	LLMPromptCharBudget         int
	PipelineLookbackDays        int
	PipelineDocTypes            []string
	PipelineRequireSecCode      bool
	PipelineDownloadWorkers     int
	InternalJobToken            string
	LogLevel                    logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	edinetTimeout, err := time.ParseDuration(getEnv("EDINET_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_TIMEOUT: %w", err)
	}
	if edinetTimeout <= 0 {
		return Config{}, fmt.Errorf("EDINET_TIMEOUT must be > 0")
	}
	edinetMaxAttempts, err := getEnvAsInt("EDINET_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_MAX_ATTEMPTS: %w", err)
	}
	if edinetMaxAttempts < 1 {
		return Config{}, fmt.Errorf("EDINET_MAX_ATTEMPTS must be >= 1")
	}
	edinetBackoffBase, err := time.ParseDuration(getEnv("EDINET_BACKOFF_BASE", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_BACKOFF_BASE: %w", err)
	}
	if edinetBackoffBase <= 0 {
		return Config{}, fmt.Errorf("EDINET_BACKOFF_BASE must be > 0")
	}
	edinetRateLimit, err := getEnvAsFloat("EDINET_RATE_LIMIT", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_RATE_LIMIT: %w", err)
	}
	if edinetRateLimit < 0 {
		return Config{}, fmt.Errorf("EDINET_RATE_LIMIT must be >= 0")
	}
	edinetCircuitEnabled, err := strconv.ParseBool(getEnv("EDINET_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_CIRCUIT_ENABLED: %w", err)
	}
	edinetCircuitFailureCount, err := getEnvAsInt("EDINET_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if edinetCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("EDINET_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	edinetCircuitOpenTimeout, err := time.ParseDuration(getEnv("EDINET_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if edinetCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("EDINET_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	edinetCircuitHalfOpenMaxReq, err := getEnvAsInt("EDINET_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse EDINET_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if edinetCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("EDINET_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	openAITimeout, err := time.ParseDuration(getEnv("OPENAI_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENAI_TIMEOUT: %w", err)
	}
	if openAITimeout <= 0 {
		return Config{}, fmt.Errorf("OPENAI_TIMEOUT must be > 0")
	}
	llmPromptCharBudget, err := getEnvAsInt("LLM_PROMPT_CHAR_BUDGET", 6000)
	if err != nil {
		return Config{}, fmt.Errorf("parse LLM_PROMPT_CHAR_BUDGET: %w", err)
	}
	if llmPromptCharBudget < 1 {
		return Config{}, fmt.Errorf("LLM_PROMPT_CHAR_BUDGET must be >= 1")
	}

	pipelineLookbackDays, err := getEnvAsInt("PIPELINE_LOOKBACK_DAYS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse PIPELINE_LOOKBACK_DAYS: %w", err)
	}
	if pipelineLookbackDays < 0 {
		return Config{}, fmt.Errorf("PIPELINE_LOOKBACK_DAYS must be >= 0")
	}
	pipelineRequireSecCode, err := strconv.ParseBool(getEnv("PIPELINE_REQUIRE_SEC_CODE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PIPELINE_REQUIRE_SEC_CODE: %w", err)
	}
	pipelineDownloadWorkers, err := getEnvAsInt("PIPELINE_DOWNLOAD_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse PIPELINE_DOWNLOAD_WORKERS: %w", err)
	}
	if pipelineDownloadWorkers < 1 {
		return Config{}, fmt.Errorf("PIPELINE_DOWNLOAD_WORKERS must be >= 1")
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "edinet-insight-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                       strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:     true,
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:                pprofEnabled,
		PprofAddr:                   pprofAddr,
		SwaggerEnabled:              swaggerEnabled,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		UptraceLogsEnabled:          uptraceLogsEnabled,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
		EdinetBaseURL:               strings.TrimSpace(getEnv("EDINET_BASE_URL", "https://api.edinet-fsa.go.jp/api/v2")),
		EdinetAPIKey:                strings.TrimSpace(getEnv("EDINET_API_KEY", "")),
		EdinetTimeout:               edinetTimeout,
		EdinetMaxAttempts:           edinetMaxAttempts,
		EdinetBackoffBase:           edinetBackoffBase,
		EdinetRateLimit:             edinetRateLimit,
		EdinetCircuitEnabled:        edinetCircuitEnabled,
		EdinetCircuitFailureCount:   edinetCircuitFailureCount,
		EdinetCircuitOpenTimeout:    edinetCircuitOpenTimeout,
		EdinetCircuitHalfOpenMaxReq: edinetCircuitHalfOpenMaxReq,
		OpenAIAPIKey:                strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIBaseURL:               strings.TrimSpace(getEnv("OPENAI_BASE_URL", "")),
		OpenAITimeout:               openAITimeout,
		LLMPrimaryModel:             strings.TrimSpace(getEnv("LLM_MODEL", "gpt-4o")),
		LLMFallbackModel:            strings.TrimSpace(getEnv("LLM_FALLBACK_MODEL", "gpt-4-turbo")),
		LLMPromptCharBudget:         llmPromptCharBudget,
		PipelineLookbackDays:        pipelineLookbackDays,
		PipelineDocTypes:            splitCSV(getEnv("PIPELINE_DOC_TYPES", "160,180")),
		PipelineRequireSecCode:      pipelineRequireSecCode,
		PipelineDownloadWorkers:     pipelineDownloadWorkers,
		InternalJobToken:            strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.LLMPrimaryModel == "" {
		return Config{}, fmt.Errorf("LLM_MODEL cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
