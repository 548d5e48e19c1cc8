package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Storage       string // postgres | memory
	Environment   string

	AdminIDs []int64 // Telegram chat ID админов клиники

	ClinicTimezone string // IANA имя, например Africa/Khartoum
	CutoffEnabled  bool
	CutoffHour     int
	CutoffMinute   int

	PriceNew      int // Цены в пиастрах
	PriceFollowup int

	SessionTTLMinutes   int
	SessionSweepMinutes int

	MigrationsPath string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		DBDSN:               os.Getenv("DB_DSN"),
		Storage:             os.Getenv("STORAGE"),
		Environment:         os.Getenv("ENV"),
		ClinicTimezone:      os.Getenv("CLINIC_TIMEZONE"),
		CutoffEnabled:       envBool("CUTOFF_ENABLED", true),
		CutoffHour:          envInt("CUTOFF_HOUR", 18),
		CutoffMinute:        envInt("CUTOFF_MINUTE", 0),
		PriceNew:            envInt("PRICE_NEW", 500000),
		PriceFollowup:       envInt("PRICE_FOLLOWUP", 300000),
		SessionTTLMinutes:   envInt("SESSION_TTL_MINUTES", 30),
		SessionSweepMinutes: envInt("SESSION_SWEEP_MINUTES", 10),
		MigrationsPath:      os.Getenv("MIGRATIONS_PATH"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Storage == "" {
		cfg.Storage = "postgres"
	}
	if cfg.ClinicTimezone == "" {
		cfg.ClinicTimezone = "Africa/Khartoum"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	// Обязательные поля
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.Storage == "postgres" && cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	admins, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("parse ADMIN_IDS: %w", err)
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS is required but not set")
	}
	cfg.AdminIDs = admins

	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 || cfg.CutoffMinute < 0 || cfg.CutoffMinute > 59 {
		return nil, fmt.Errorf("invalid cutoff time %02d:%02d", cfg.CutoffHour, cfg.CutoffMinute)
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

// IsAdmin проверяет входит ли chat ID в список админов
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// parseAdminIDs разбирает список chat ID через запятую
func parseAdminIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, raw, def)
		return def
	}
	return v
}
