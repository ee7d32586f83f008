// Package epp holds the protocol-facing value types of the command core:
// result codes, transaction identifiers, and the response envelope. The
// types here are pure data; which payload kinds are legal for which command
// is enforced by the flow engine, not by this package.
package epp

import "fmt"

// Code is an EPP result code as defined by RFC 5730 section 3.
type Code int

const (
	CodeSuccess                  Code = 1000
	CodeSuccessActionPending     Code = 1001
	CodeSuccessNoMessages        Code = 1300
	CodeSyntaxError              Code = 2001
	CodeRequiredParameterMissing Code = 2003
	CodeParameterValuePolicy     Code = 2306
	CodeAuthorizationError       Code = 2201
	CodeObjectExists             Code = 2302
	CodeObjectDoesNotExist       Code = 2303
	CodeStatusProhibitsOperation Code = 2304
	CodeCommandFailed            Code = 2400
)

var defaultMessages = map[Code]string{
	CodeSuccess:                  "Command completed successfully",
	CodeSuccessActionPending:     "Command completed successfully; action pending",
	CodeSuccessNoMessages:        "Command completed successfully; no messages",
	CodeSyntaxError:              "Command syntax error",
	CodeRequiredParameterMissing: "Required parameter missing",
	CodeParameterValuePolicy:     "Parameter value policy error",
	CodeAuthorizationError:       "Authorization error",
	CodeObjectExists:             "Object exists",
	CodeObjectDoesNotExist:       "Object does not exist",
	CodeStatusProhibitsOperation: "Object status prohibits operation",
	CodeCommandFailed:            "Command failed",
}

// IsSuccess reports whether the code is in the 1xxx success range.
func (c Code) IsSuccess() bool {
	return c >= 1000 && c < 2000
}

// Result describes the outcome of one command. The RFC permits a response to
// carry multiple failure results, but the registry always returns exactly
// one, so success and failure can never be mixed.
type Result struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// NewResult returns a Result with the canonical message for the code.
func NewResult(code Code) Result {
	return Result{Code: code, Message: defaultMessages[code]}
}

// NewResultWithDetail appends a detail fragment to the canonical message.
func NewResultWithDetail(code Code, detail string) Result {
	if detail == "" {
		return NewResult(code)
	}
	return Result{Code: code, Message: fmt.Sprintf("%s: %s", defaultMessages[code], detail)}
}
