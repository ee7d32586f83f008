package flows

import (
	"time"

	"github.com/EnCirca/nomulus/internal/model"
)

// prohibition pairs one client-settable and one server-settable status per
// mutating operation category.
type prohibition struct {
	client model.StatusValue
	server model.StatusValue
}

var prohibitionsByOperation = map[Operation]prohibition{
	OperationUpdate:   {client: model.StatusClientUpdateProhibited, server: model.StatusServerUpdateProhibited},
	OperationDelete:   {client: model.StatusClientDeleteProhibited, server: model.StatusServerDeleteProhibited},
	OperationTransfer: {client: model.StatusClientTransferProhibited, server: model.StatusServerTransferProhibited},
}

// GateInput describes one attempted operation for the gate to judge.
type GateInput struct {
	Resource        *model.Resource
	ClientID        model.ClientID
	Superuser       bool
	Operation       Operation
	TransactionTime time.Time
	// Transfer requests authorize through auth info rather than current
	// sponsorship, so their flow disables the ownership check.
	SkipOwnership bool
	Kind          model.ResourceKind
	Name          model.ResourceName
}

// CheckAccess is the authorization and status gate. It validates, without
// side effects, that the target exists at the transaction time, that the
// requester sponsors it or overrides as superuser, and that no status flag
// prohibits the operation. The superuser override extends to ownership and
// to client-settable prohibitions only; server-settable prohibitions and
// existence are never bypassed.
func CheckAccess(in GateInput) error {
	if !in.Resource.ExistsAt(in.TransactionTime) {
		return DoesNotExistError{Kind: in.Kind, Name: in.Name}
	}

	if !in.SkipOwnership && in.Operation != OperationInfo {
		if in.Resource.CurrentSponsorClientID != in.ClientID.String() && !in.Superuser {
			return NotOwnedError{RepoID: in.Resource.RepoID, ClientID: in.ClientID}
		}
	}

	pair, mutating := prohibitionsByOperation[in.Operation]
	if !mutating {
		return nil
	}

	if in.Resource.Statuses.Has(model.StatusPendingDelete) {
		return ServerProhibitedError{RepoID: in.Resource.RepoID, Status: model.StatusPendingDelete}
	}
	if in.Resource.Statuses.Has(pair.server) {
		return ServerProhibitedError{RepoID: in.Resource.RepoID, Status: pair.server}
	}
	if in.Resource.Statuses.Has(pair.client) && !in.Superuser {
		return ClientProhibitedError{RepoID: in.Resource.RepoID, Status: pair.client}
	}
	return nil
}
