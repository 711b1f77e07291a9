// Package config loads the bot configuration from the environment and
// the staff roster from a YAML file
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
)

// Config holds everything the process needs to start
type Config struct {
	BotToken  string `validate:"required"`
	DBPath    string `validate:"required"`
	Timezone  string `validate:"required"`
	LogLevel  string
	Debug     bool
	StaffFile string
	RedisAddr string // empty means in-memory sessions

	Location *time.Location
}

// rosterFile is the YAML shape of the staff file
type rosterFile struct {
	Staff []rosterEntry `yaml:"staff" validate:"required,min=1,dive"`
}

type rosterEntry struct {
	Alias     string `yaml:"alias" validate:"required,alphanum,min=2,max=20,lowercase"`
	Name      string `yaml:"name" validate:"required,max=100"`
	Pin       string `yaml:"pin" validate:"required,numeric,min=4,max=6"`
	StartHour int    `yaml:"start_hour" validate:"min=0,max=23"`
	EndHour   int    `yaml:"end_hour" validate:"min=1,max=24,gtfield=StartHour"`
}

// Load reads .env if present, then the environment
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:  os.Getenv("BOT_TOKEN"),
		DBPath:    envOr("DB_PATH", "barbershop.db"),
		Timezone:  envOr("TIMEZONE", "America/Bogota"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		StaffFile: envOr("STAFF_FILE", "staff.yml"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
	}
	if debug, err := strconv.ParseBool(envOr("DEBUG", "false")); err == nil {
		cfg.Debug = debug
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errs.E(errs.Validation, fmt.Sprintf("config: %v", err))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errs.E(errs.Validation, fmt.Sprintf("config: unknown timezone %q", cfg.Timezone))
	}
	cfg.Location = loc
	return cfg, nil
}

// LoadRoster parses and validates the staff YAML file
func LoadRoster(path string) ([]services.RosterEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Infrastructure, "config: read staff file", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errs.Wrap(errs.Validation, "config: parse staff file", err)
	}
	if err := validator.New().Struct(&file); err != nil {
		return nil, errs.E(errs.Validation, fmt.Sprintf("config: staff file: %v", err))
	}

	roster := make([]services.RosterEntry, 0, len(file.Staff))
	for _, e := range file.Staff {
		roster = append(roster, services.RosterEntry{
			Alias:     e.Alias,
			Name:      e.Name,
			Pin:       e.Pin,
			StartHour: e.StartHour,
			EndHour:   e.EndHour,
		})
	}
	return roster, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
