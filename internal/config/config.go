package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Line     LineConfig
	Sheet    SheetConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Survey   SurveyConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

type SheetConfig struct {
	// EndpointURL is the Google Apps Script exec URL backing the
	// spreadsheet.
	EndpointURL string

	// SubmitMode is "sync" (submit before the closing reply) or
	// "queue" (hand off to the in-process delivery worker).
	SubmitMode string

	// MaxAttempts bounds delivery retries in queue mode.
	MaxAttempts int
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string

	// NotifyTo receives a mail per completed intake; empty disables it.
	NotifyTo string
}

type SurveyConfig struct {
	// SessionStore selects "memory" or "redis".
	SessionStore string

	// SessionTTLMinutes evicts idle sessions; abandoned surveys would
	// otherwise stay resident forever.
	SessionTTLMinutes int

	DateWindow int
	TimeFrom   int
	TimeTo     int

	// RestartKeywords reset a survey when they appear in a message.
	RestartKeywords []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Line: LineConfig{
			ChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
			ChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		},
		Sheet: SheetConfig{
			EndpointURL: getEnv("SHEET_ENDPOINT_URL", ""),
			SubmitMode:  getEnv("SUBMIT_MODE", "sync"),
			MaxAttempts: getEnvAsInt("SUBMIT_MAX_ATTEMPTS", 3),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "IntakeBot"),
			NotifyTo:   getEnv("INTAKE_NOTIFY_EMAIL", ""),
		},
		Survey: SurveyConfig{
			SessionStore:      getEnv("SESSION_STORE", "memory"),
			SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
			DateWindow:        getEnvAsInt("SURVEY_DATE_WINDOW", 10),
			TimeFrom:          getEnvAsInt("SURVEY_TIME_FROM", 15),
			TimeTo:            getEnvAsInt("SURVEY_TIME_TO", 22),
			RestartKeywords:   getEnvAsList("SURVEY_RESTART_KEYWORDS", "登録,やり直し"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
