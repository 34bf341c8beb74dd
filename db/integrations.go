package db

import (
	"database/sql"
	"time"

	"github.com/rohanthewiz/serr"
	"waypoint/apperr"
)

// GoogleIntegration holds the stored OAuth tokens of a user's Google
// Calendar connection.
type GoogleIntegration struct {
	OwnerID      string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// SaveGoogleIntegration upserts the Google tokens for a user.
func (db *DB) SaveGoogleIntegration(g *GoogleIntegration) error {
	query := `
		INSERT INTO integrations (owner_id, provider, access_token, refresh_token, expiry, updated_at)
		VALUES (?, 'google', ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (owner_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := db.Exec(query, g.OwnerID, g.AccessToken, g.RefreshToken, g.Expiry)
	if err != nil {
		return serr.Wrap(err, "failed to save google integration")
	}
	return nil
}

// GetGoogleIntegration retrieves a user's Google tokens. Fails
// NotConnected when the user has never connected Google Calendar.
func (db *DB) GetGoogleIntegration(ownerID string) (*GoogleIntegration, error) {
	var g GoogleIntegration
	var expiry sql.NullTime

	err := db.QueryRow(`
		SELECT owner_id, access_token, refresh_token, expiry
		FROM integrations
		WHERE owner_id = ? AND provider = 'google'
	`, ownerID).Scan(&g.OwnerID, &g.AccessToken, &g.RefreshToken, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotConnected, "google calendar not connected")
		}
		return nil, serr.Wrap(err, "failed to get google integration")
	}

	if expiry.Valid {
		g.Expiry = expiry.Time
	}

	return &g, nil
}
