package authplane

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginLocked        = "login_locked"
	auditEventLogout             = "logout"
	auditEventLogoutAll          = "logout_all"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshReuse       = "refresh_reuse_detected"
	auditEventRequestRateLimited = "request_rate_limited"
	auditEventSessionsTerminated = "sessions_terminated"
)
