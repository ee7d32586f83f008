// Package flows implements the EPP command core: the authorization and
// status gate, the per-command flow logic, and the engine that drives one
// command through load, validate, mutate, and commit inside a single
// storage transaction.
package flows

import (
	"fmt"

	"github.com/EnCirca/nomulus/internal/epp"
	"github.com/EnCirca/nomulus/internal/model"
)

// FlowError is a deterministic, client-caused failure. Each carries the EPP
// result it maps to; the engine reports it as the response's single Result
// and never retries it.
type FlowError interface {
	error
	EppResult() epp.Result
}

// DoesNotExistError reports a target that is absent, or already soft
// deleted, as of the transaction time.
type DoesNotExistError struct {
	Kind model.ResourceKind
	Name model.ResourceName
}

func (e DoesNotExistError) Error() string {
	return fmt.Sprintf("%s (%s) does not exist", e.Kind, e.Name)
}

// EppResult maps to object-does-not-exist.
func (e DoesNotExistError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeObjectDoesNotExist, fmt.Sprintf("(%s)", e.Name))
}

// AlreadyExistsError reports a create colliding with a live resource.
type AlreadyExistsError struct {
	Kind model.ResourceKind
	Name model.ResourceName
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s (%s) already exists", e.Kind, e.Name)
}

// EppResult maps to object-exists.
func (e AlreadyExistsError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeObjectExists, fmt.Sprintf("(%s)", e.Name))
}

// NotOwnedError reports a requester that does not sponsor the target and
// holds no superuser override.
type NotOwnedError struct {
	RepoID   string
	ClientID model.ClientID
}

func (e NotOwnedError) Error() string {
	return fmt.Sprintf("registrar %s is not the sponsor of %s", e.ClientID, e.RepoID)
}

// EppResult maps to authorization error.
func (e NotOwnedError) EppResult() epp.Result {
	return epp.NewResult(epp.CodeAuthorizationError)
}

// BadAuthInfoError reports an authorization credential mismatch.
type BadAuthInfoError struct {
	RepoID string
}

func (e BadAuthInfoError) Error() string {
	return fmt.Sprintf("authorization information for %s did not match", e.RepoID)
}

// EppResult maps to authorization error.
func (e BadAuthInfoError) EppResult() epp.Result {
	return epp.NewResult(epp.CodeAuthorizationError)
}

// ClientProhibitedError reports a client-settable prohibition status
// blocking the operation; a superuser may bypass it.
type ClientProhibitedError struct {
	RepoID string
	Status model.StatusValue
}

func (e ClientProhibitedError) Error() string {
	return fmt.Sprintf("status %s on %s prohibits the operation", e.Status, e.RepoID)
}

// EppResult maps to status-prohibits-operation.
func (e ClientProhibitedError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeStatusProhibitsOperation, e.Status.String())
}

// ServerProhibitedError reports a server-settable prohibition status
// blocking the operation; never bypassed, not even by a superuser.
type ServerProhibitedError struct {
	RepoID string
	Status model.StatusValue
}

func (e ServerProhibitedError) Error() string {
	return fmt.Sprintf("status %s on %s prohibits the operation", e.Status, e.RepoID)
}

// EppResult maps to status-prohibits-operation.
func (e ServerProhibitedError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeStatusProhibitsOperation, e.Status.String())
}

// StatusNotClientSettableError reports a client trying to add or remove a
// status only the registry may set.
type StatusNotClientSettableError struct {
	Status model.StatusValue
}

func (e StatusNotClientSettableError) Error() string {
	return fmt.Sprintf("status %s is not client settable", e.Status)
}

// EppResult maps to parameter-value-policy error.
func (e StatusNotClientSettableError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeParameterValuePolicy, e.Status.String())
}

// PolicyError reports a kind-specific structural rule violation.
type PolicyError struct {
	Detail string
}

func (e PolicyError) Error() string {
	return e.Detail
}

// EppResult maps to parameter-value-policy error.
func (e PolicyError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeParameterValuePolicy, e.Detail)
}

// SyntaxError reports a structurally invalid command.
type SyntaxError struct {
	Detail string
}

func (e SyntaxError) Error() string {
	return e.Detail
}

// EppResult maps to command-syntax error.
func (e SyntaxError) EppResult() epp.Result {
	return epp.NewResultWithDetail(epp.CodeSyntaxError, e.Detail)
}
