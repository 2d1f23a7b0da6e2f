package common

// Cookie and header names shared by the HTTP API and the admin client.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"

	// MirrorSourceHeader tells the caller where a lookup was answered from.
	MirrorSourceHeader = "X-Mirror-Source"
	// MirrorDegradedHeader is set when the mirror failed and the answer
	// came from the reference service instead.
	MirrorDegradedHeader = "X-Mirror-Degraded"
)
