package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// LaunchRecord is one released drag that set a puck moving
type LaunchRecord struct {
	ID         int       `db:"id" json:"id"`
	BoardToken string    `db:"board_token" json:"board_token"`
	PuckID     int       `db:"puck_id" json:"puck_id"`
	PointerID  int       `db:"pointer_id" json:"pointer_id"`
	DirectionX float64   `db:"direction_x" json:"direction_x"`
	DirectionZ float64   `db:"direction_z" json:"direction_z"`
	Speed      float64   `db:"speed" json:"speed"`
	Force      float64   `db:"force" json:"force"`
	Frame      int       `db:"frame" json:"frame"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AdminAccount is an operator allowed to use the admin endpoints
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one logged admin action
type AdminAudit struct {
	ID        int             `db:"id" json:"id"`
	Username  string          `db:"username" json:"username"`
	IP        string          `db:"ip" json:"ip"`
	Route     string          `db:"route" json:"route"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details"`
	Success   bool            `db:"success" json:"success"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// RuntimeConfig is a tuning value that overrides the environment at startup
type RuntimeConfig struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	ValueType   string    `db:"value_type" json:"value_type"`
	Description string    `db:"description" json:"description"`
	UpdatedBy   string    `db:"updated_by" json:"updated_by"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
