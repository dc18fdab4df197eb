package telemetry

import (
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/models"
)

// RecordLaunch appends a launch to the launch log
func RecordLaunch(db *sqlx.DB, rec models.LaunchRecord) error {
	_, err := db.Exec(`
		INSERT INTO launches (board_token, puck_id, pointer_id, direction_x, direction_z, speed, force, frame, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.BoardToken, rec.PuckID, rec.PointerID, rec.DirectionX, rec.DirectionZ, rec.Speed, rec.Force, rec.Frame, rec.CreatedAt)
	return err
}

// RecentLaunches returns the latest launches of a board, newest first
func RecentLaunches(db *sqlx.DB, boardToken string, limit int) ([]models.LaunchRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var launches []models.LaunchRecord
	err := db.Select(&launches, `
		SELECT id, board_token, puck_id, pointer_id, direction_x, direction_z, speed, force, frame, created_at
		FROM launches
		WHERE board_token = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, boardToken, limit)
	return launches, err
}
