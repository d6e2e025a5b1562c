package constant

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	BearerScheme = "Bearer"

	AccountStatusActive = "ACTIVE"
	AccountStatusLocked = "LOCKED"

	AuditActionLoginSuccess   = "login_success"
	AuditActionLoginFailure   = "login_failure"
	AuditActionLogout         = "logout"
	AuditActionLogoutAll      = "logout_all_devices"
	AuditActionTokenRefresh   = "token_refresh"
	AuditActionPasswordChange = "password_change"
	AuditActionForceLogout    = "force_logout"
	AuditActionSessionLimit   = "session_limit_exceeded"

	FailureReasonLocked          = "locked"
	FailureReasonBadPassword     = "bad_password"
	FailureReasonUnknownAccount  = "unknown_account"
	FailureReasonPasswordExpired = "password_expired"
)
