package handlers

import (
	"context"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
)

// googleStartHandler begins the Google Calendar connect flow by
// redirecting to the consent page.
func (a *API) googleStartHandler(c rweb.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return writeErr(c, err)
	}
	if !a.Cfg.CalendarConfigured() {
		return writeErr(c, apperr.New(apperr.FailedPrecondition, "google oauth not configured"))
	}

	consentURL, err := a.OAuth.ConsentURL(uid)
	if err != nil {
		return writeErr(c, apperr.Wrap(apperr.Internal, err, "failed to build consent url"))
	}

	return c.Redirect(302, consentURL)
}

// googleCallbackHandler completes the connect flow: validates state,
// exchanges the code, and stores the tokens.
func (a *API) googleCallbackHandler(c rweb.Context) error {
	state := c.Request().QueryParam("state")
	code := c.Request().QueryParam("code")
	if state == "" || code == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "missing state or code"))
	}

	if err := a.OAuth.Exchange(context.Background(), a.DB, state, code); err != nil {
		return writeErr(c, apperr.Wrap(apperr.Internal, err, "oauth exchange failed"))
	}

	logger.Info("Google Calendar connected")
	return c.WriteHTML(`<html><body>
		<h3>Google Calendar connected</h3>
		<p>You can close this window.</p>
		<script>setTimeout(function(){ window.location = "/"; }, 1500);</script>
	</body></html>`)
}
