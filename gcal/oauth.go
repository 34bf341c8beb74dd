// Package gcal is the Google Calendar bridge: OAuth connect flow plus
// event create/list against the Calendar v3 API.
package gcal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/rohanthewiz/serr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"waypoint/config"
	"waypoint/db"
)

const calendarScope = "https://www.googleapis.com/auth/calendar.events"

// stateTTL bounds how long a pending consent redirect stays valid.
const stateTTL = 10 * time.Minute

type pendingState struct {
	ownerID   string
	createdAt time.Time
}

// OAuth drives the Google consent flow and token persistence.
type OAuth struct {
	cfg    *oauth2.Config
	states sync.Map // state -> pendingState
}

// NewOAuth builds the OAuth helper from application config.
func NewOAuth(cfg *config.Config) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{calendarScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// sweepExpired drops consent states past their TTL. Abandoned consent
// flows never come back through Exchange, so this is the only place
// those entries get reclaimed.
func (o *OAuth) sweepExpired() {
	now := time.Now()
	o.states.Range(func(key, value any) bool {
		if now.Sub(value.(pendingState).createdAt) > stateTTL {
			o.states.Delete(key)
		}
		return true
	})
}

// ConsentURL creates a CSRF state bound to ownerID and returns the
// Google consent page URL to redirect the user to.
func (o *OAuth) ConsentURL(ownerID string) (string, error) {
	o.sweepExpired()

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", serr.Wrap(err, "failed to generate state")
	}
	state := base64.RawURLEncoding.EncodeToString(stateBytes)

	o.states.Store(state, pendingState{ownerID: ownerID, createdAt: time.Now()})

	// offline access so we receive a refresh token
	url := o.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	return url, nil
}

// Exchange validates the callback state, exchanges the code for
// tokens, and persists them for the owning user.
func (o *OAuth) Exchange(ctx context.Context, store *db.DB, state, code string) error {
	v, ok := o.states.LoadAndDelete(state)
	if !ok {
		return serr.New("unknown oauth state")
	}
	pending := v.(pendingState)
	if time.Since(pending.createdAt) > stateTTL {
		return serr.New("oauth state expired")
	}

	token, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return serr.Wrap(err, "failed to exchange oauth code")
	}

	return store.SaveGoogleIntegration(&db.GoogleIntegration{
		OwnerID:      pending.ownerID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	})
}

// Token converts stored integration tokens into an oauth2 token usable
// by the client (refreshes transparently through the config's source).
func (o *OAuth) Token(g *db.GoogleIntegration) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		Expiry:       g.Expiry,
	}
}

// TokenSource returns a refreshing token source for the given token.
func (o *OAuth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return o.cfg.TokenSource(ctx, token)
}
