package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuntimeValue checks value against a config value type
func ValidateRuntimeValue(valueType, value string) error {
	switch valueType {
	case "int":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		if v <= 0 {
			return fmt.Errorf("value must be positive: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminUsername string) error {
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}

	if err := ValidateRuntimeValue(existing.ValueType, value); err != nil {
		return err
	}
	if err := ValidateRuntimeRange(key, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminUsername, key)
	return err
}

// runtimeMax caps keys whose values size timers.
var runtimeMax = map[string]int{
	"frame_rate": config.MaxFrameRate,
}

// ValidateRuntimeRange checks a parsed int value against the key's upper bound
func ValidateRuntimeRange(key, value string) error {
	max, ok := runtimeMax[key]
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(value)
	if err != nil || v > max {
		return fmt.Errorf("%s must be between 1 and %d", key, max)
	}
	return nil
}

// ApplyRuntimeConfig copies a runtime config value onto cfg. Unknown keys and
// unparsable values are ignored.
func ApplyRuntimeConfig(cfg *config.Config, key, value string) bool {
	v, err := strconv.Atoi(value)
	if err != nil || v <= 0 {
		return false
	}
	if ValidateRuntimeRange(key, value) != nil {
		return false
	}

	switch key {
	case "frame_rate":
		cfg.FrameRate = v
	case "broadcast_every":
		cfg.BroadcastEvery = v
	case "board_idle_minutes":
		cfg.BoardIdleMinutes = v
	case "max_boards":
		cfg.MaxBoards = v
	case "session_ttl_minutes":
		cfg.SessionTTLMinutes = v
	default:
		return false
	}
	return true
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, c := range configs {
		if ApplyRuntimeConfig(cfg, c.Key, c.Value) {
			applied++
		}
	}

	log.Printf("[CONFIG] Applied %d runtime config overrides from database", applied)
	return nil
}
