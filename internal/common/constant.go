package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SessionCookieName is the HttpOnly cookie the web portal keeps the token in.
const SessionCookieName = "tvportal_session"

// Password length bounds for every operation that sets a credential.
// bcrypt cannot hash more than MaxPasswordBytes bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// MaxNoticeLength caps the system notice banner, in characters.
const MaxNoticeLength = 500
