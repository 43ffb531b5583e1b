package failure

type Severity int

// caller control flow: fatal errors are surfaced, recoverable ones may be retried
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRetryable reports whether err advertises itself as retryable.
// Errors that do not implement IsRetryable are treated as retryable.
func IsRetryable(err ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}
	return true
}
