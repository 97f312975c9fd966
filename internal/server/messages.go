package server

// User-facing API messages. Kept in one place so handlers and tests agree
// on exact wording.
const (
	msgIncorrectCredentials = "Incorrect email or password"
	msgInactiveUser         = "Inactive user"
	msgEmailTaken           = "Cannot use this email address"
	msgInvalidToken         = "Could not validate credentials"
	msgInvalidRefreshToken  = "Invalid or expired refresh token"
	msgReportQueued         = "Analysis report queued for delivery"
	msgEmailDisabled        = "Email delivery is not configured"
	msgSymbolNotFound       = "No data found for symbol"
	msgUpstreamUnavailable  = "Market data source is unavailable"
	msgNewsUnavailable      = "News source is unavailable"
	msgInvalidRequestBody   = "Invalid request body"
	msgMethodNotAllowed     = "Method not allowed"
)
