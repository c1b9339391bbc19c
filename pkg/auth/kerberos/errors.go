package kerberos

import (
	"errors"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/iana/errorcode"
	"github.com/jcmturner/gokrb5/v8/krberror"
	"github.com/jcmturner/gokrb5/v8/messages"
)

// Failure classes. Use errors.Is to test a validation error against them.
var (
	// ErrValidation matches structural, cryptographic and key lookup failures.
	ErrValidation = errors.New("kerberos: ticket validation failed")

	// ErrSecurity matches policy violations that may indicate an attack:
	// clock skew, replay, expired or not-yet-valid tickets, address mismatch.
	ErrSecurity = errors.New("kerberos: security policy violation")
)

// ValidationError reports a token that could not be decoded or a ticket that
// failed decryption or integrity checks.
//
// Message is safe to log; Err carries the underlying cause for debugging.
type ValidationError struct {
	Message string
	Code    int32 // KRB error code, 0 when the failure was not a KRB-ERROR
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("kerberos validation failed: %s (krb error %d)", e.Message, e.Code)
	}
	return "kerberos validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SecurityError reports a ticket that decrypted correctly but violates the
// acceptance policy.
type SecurityError struct {
	Message string
	Code    int32
	Err     error
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("kerberos security violation: %s (krb error %d)", e.Message, e.Code)
}

func (e *SecurityError) Unwrap() error { return e.Err }

func (e *SecurityError) Is(target error) bool { return target == ErrSecurity }

func validationErr(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// securityCodes maps the KRB error codes treated as policy violations to a
// log-safe message.
var securityCodes = map[int32]string{
	errorcode.KRB_AP_ERR_SKEW:        "clock skew too great",
	errorcode.KRB_AP_ERR_REPEAT:      "replayed authenticator",
	errorcode.KRB_AP_ERR_TKT_EXPIRED: "ticket expired",
	errorcode.KRB_AP_ERR_TKT_NYV:     "ticket not yet valid",
	errorcode.KRB_AP_ERR_BADADDR:     "client address not permitted by ticket",
}

// classify converts an error returned while verifying an AP-REQ into a
// *ValidationError or *SecurityError.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	var se *SecurityError
	if errors.As(err, &ve) || errors.As(err, &se) {
		return err
	}

	if code, ok := krbErrorCode(err); ok {
		if msg, isSecurity := securityCodes[code]; isSecurity {
			return &SecurityError{Message: msg, Code: code, Err: err}
		}
		return &ValidationError{Message: errorcode.Lookup(code), Code: code, Err: err}
	}

	var ke krberror.Krberror
	if errors.As(err, &ke) {
		switch ke.RootCause {
		case krberror.DecryptingError:
			return validationErr("ticket decryption failed", err)
		case krberror.ChksumError:
			return validationErr("checksum verification failed", err)
		case krberror.EncodingError:
			return validationErr("malformed ticket", err)
		}
	}

	return validationErr("ticket verification failed", err)
}

func krbErrorCode(err error) (int32, bool) {
	var ke messages.KRBError
	if errors.As(err, &ke) {
		return ke.ErrorCode, true
	}
	var kep *messages.KRBError
	if errors.As(err, &kep) && kep != nil {
		return kep.ErrorCode, true
	}
	return 0, false
}
