// Package client is the admin-side HTTP client of the vehiclefeed API.
//
// # Overview
//
// HTTPClient keeps the auth cookies in a cookie jar, so after Login every
// call is authenticated. When the server answers 401 because the access
// token expired, the client refreshes the tokens once through /auth/refresh
// and retries the call.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable, rejected credentials to
// ErrUnauthorized, and any other non-2xx answer to *APIError.
package client
