package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidSignal        ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106

	// Market data / order flow errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeFeedUnavailable  ErrorCode = 201
	ErrCodeFeedParseFailed  ErrorCode = 202
	ErrCodeFeedSubscription ErrorCode = 203

	// State machine errors (300-399)
	ErrCodeForbiddenTransition ErrorCode = 300
	ErrCodeUnexpectedState     ErrorCode = 301

	// Risk policy errors (400-499)
	ErrCodeRiskBudgetExhausted  ErrorCode = 400
	ErrCodeQuantityBelowMinimum ErrorCode = 401
	ErrCodeEdgeTooThin          ErrorCode = 402
	ErrCodeMaxPositionsReached  ErrorCode = 403
	ErrCodeThrottleExceeded     ErrorCode = 404
	ErrCodeKillSwitchActive     ErrorCode = 405
	ErrCodeSafeModeActive       ErrorCode = 406

	// Trading errors (500-599)
	ErrCodeOrderCreateFailed ErrorCode = 500
	ErrCodeOrderIDMissing    ErrorCode = 501
	ErrCodeFillTimeout       ErrorCode = 502
	ErrCodeProtectionFailed  ErrorCode = 503
	ErrCodeCancelFailed      ErrorCode = 504
	ErrCodePositionNotFound  ErrorCode = 505

	// Journal errors (600-699)
	ErrCodeJournalInitFailed  ErrorCode = 600
	ErrCodeJournalQueryFailed ErrorCode = 601
	ErrCodeJournalWriteFailed ErrorCode = 602

	// Exchange errors (700-799)
	ErrCodeExchangeUnavailable ErrorCode = 700
	ErrCodeExchangeRejected    ErrorCode = 701
	ErrCodeBalanceFetchFailed  ErrorCode = 702

	// Control plane errors (800-899)
	ErrCodeServerFailed     ErrorCode = 800
	ErrCodeBadRequestBody   ErrorCode = 801
	ErrCodeCallbackRejected ErrorCode = 802
)
