// Package preflight validates and resolves the environment before the
// runtime starts. Validation problems are reported as findings, never as
// fatal errors.
package preflight

import (
	"errors"

	"github.com/vinayprograms/bootshim/internal/character"
	"github.com/vinayprograms/bootshim/internal/launcher"
	"github.com/vinayprograms/bootshim/internal/solkey"
)

// Code classifies a finding.
type Code string

const (
	MissingCredential      Code = "MissingCredential"
	InvalidEncoding        Code = "InvalidEncoding"
	InvalidKeySize         Code = "InvalidKeySize"
	DecodeError            Code = "DecodeError"
	ConfigParseError       Code = "ConfigParseError"
	ExternalRuntimeFailure Code = "ExternalRuntimeFailure"
)

// ErrMissingCredential marks a required variable that is not set.
var ErrMissingCredential = errors.New("missing credential")

// Severity of a finding.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Finding is one diagnostic line. Message and Hint never contain secret values.
type Finding struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     Code     `json:"code,omitempty" yaml:"code,omitempty"`
	Var      string   `json:"var,omitempty" yaml:"var,omitempty"`
	Message  string   `json:"message" yaml:"message"`
	Hint     string   `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// CodeFor maps an error from the pipeline packages onto the taxonomy.
func CodeFor(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return MissingCredential
	case errors.Is(err, solkey.ErrInvalidEncoding):
		return InvalidEncoding
	case errors.Is(err, solkey.ErrInvalidKeySize):
		return InvalidKeySize
	case errors.Is(err, solkey.ErrDecode):
		return DecodeError
	case errors.Is(err, character.ErrConfigParse):
		return ConfigParseError
	case errors.Is(err, launcher.ErrRuntimeFailure):
		return ExternalRuntimeFailure
	}
	return ""
}

// FindingFor builds an error-severity finding for err.
func FindingFor(variable string, err error, hint string) Finding {
	return Finding{
		Severity: SeverityError,
		Code:     CodeFor(err),
		Var:      variable,
		Message:  err.Error(),
		Hint:     hint,
	}
}
