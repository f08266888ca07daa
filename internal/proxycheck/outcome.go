package proxycheck

// OutcomeKind tags the result of the direct probe.
type OutcomeKind int

const (
	// Success means the proxy answered with a 2xx.
	Success OutcomeKind = iota
	// RetryWithFallback means the HTTP client could not tunnel through the
	// proxy and a real browser should try instead.
	RetryWithFallback
	// Failure is final.
	Failure
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case RetryWithFallback:
		return "retry_with_fallback"
	default:
		return "failure"
	}
}

// Outcome is what a probe step decided.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

func succeeded() Outcome { return Outcome{Kind: Success} }

func failed(reason string) Outcome { return Outcome{Kind: Failure, Reason: reason} }

func fallback(err error) Outcome {
	return Outcome{Kind: RetryWithFallback, Reason: err.Error(), Err: err}
}
