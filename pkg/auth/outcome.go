package auth

import "fmt"

// OutcomeKind discriminates the three possible results of an attempt.
type OutcomeKind int

const (
	// OutcomeNoResult means the scheme was not attempted (no or foreign credentials).
	OutcomeNoResult OutcomeKind = iota
	// OutcomeSuccess means the credentials were validated.
	OutcomeSuccess
	// OutcomeFailure means the scheme was attempted and rejected.
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoResult:
		return "no_result"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Category classifies why an attempt failed.
type Category string

const (
	// CategoryConfiguration covers missing or unreadable keytab material.
	CategoryConfiguration Category = "configuration"
	// CategoryValidation covers structurally bad tokens and crypto failures.
	CategoryValidation Category = "validation"
	// CategorySecurity covers clock skew, replay, expiry and address mismatch.
	CategorySecurity Category = "security"
	// CategoryUnexpected covers internal faults recovered at the scheme boundary.
	CategoryUnexpected Category = "unexpected"
)

// Failure describes a rejected attempt. Message is safe to log and never
// contains key material.
type Failure struct {
	Category Category
	Message  string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Category, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the tagged result of one authentication attempt. Exactly one of
// Identity (Success) or Failure (Failure) is set; neither for NoResult.
// Construct outcomes with NoResult, Success or Fail.
type Outcome struct {
	Kind     OutcomeKind
	Identity *Identity
	Failure  *Failure
}

// NoResult returns an outcome indicating the scheme did not apply.
func NoResult() Outcome {
	return Outcome{Kind: OutcomeNoResult}
}

// Success returns a successful outcome for id. A nil or principal-less
// identity is converted into an unexpected failure.
func Success(id *Identity) Outcome {
	if id == nil || id.Principal == "" {
		return Fail(CategoryUnexpected, "authentication produced no principal", nil)
	}
	return Outcome{Kind: OutcomeSuccess, Identity: id}
}

// Fail returns a failed outcome.
func Fail(category Category, message string, err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Failure: &Failure{Category: category, Message: message, Err: err}}
}

// Succeeded reports whether the outcome is a Success.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess && o.Identity != nil
}
