package handlers

import (
	"github.com/rohanthewiz/rweb"
	"waypoint/apperr"
)

// userIDHeader is set by the authenticating reverse proxy in front of
// this service. The value is an opaque verified user id; this service
// never performs credential verification itself.
const userIDHeader = "X-Auth-User"

// callerID extracts the verified user id from the request, failing
// Unauthenticated when the header is absent.
func callerID(c rweb.Context) (string, error) {
	uid := c.Request().Header(userIDHeader)
	if uid == "" {
		return "", apperr.New(apperr.Unauthenticated, "login required")
	}
	return uid, nil
}
