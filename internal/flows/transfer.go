package flows

import (
	"github.com/EnCirca/nomulus/internal/model"
)

func (e *Engine) runTransfer(fc *flowContext, detail TransferDetail) error {
	if detail.Kind == model.KindHost {
		// Hosts move with their superordinate domain and are never
		// transferred directly.
		return PolicyError{Detail: "hosts are not transferable"}
	}

	target, err := e.loadTarget(fc, detail.Kind, detail.Name)
	if err != nil {
		return err
	}

	// The gaining registrar is not the sponsor, so the transfer authorizes
	// through auth info instead of ownership.
	if err := CheckAccess(GateInput{
		Resource:        target,
		ClientID:        model.ClientID(fc.clientID),
		Superuser:       fc.superuser,
		Operation:       OperationTransfer,
		TransactionTime: fc.transactionTime,
		SkipOwnership:   true,
		Kind:            detail.Kind,
		Name:            detail.Name,
	}); err != nil {
		return err
	}

	if !fc.superuser {
		stored, err := storedAuthInfo(target)
		if err != nil {
			return err
		}
		if stored == "" || stored != detail.AuthInfo {
			return BadAuthInfoError{RepoID: target.RepoID}
		}
	}

	if !fc.live {
		return nil
	}

	mutated := target.Clone()
	mutated.CurrentSponsorClientID = fc.clientID
	mutated.LastUpdateTimeMillis = fc.transactionTime.UnixMilli()
	mutated.Version = target.Version + 1

	return e.commitMutation(fc, mutated, target.Version, OperationTransfer)
}

func storedAuthInfo(resource *model.Resource) (string, error) {
	switch resource.Kind {
	case model.KindDomain:
		var data model.DomainData
		if err := model.DecodeKindData(resource, &data); err != nil {
			return "", err
		}
		return data.AuthInfo, nil
	case model.KindContact:
		var data model.ContactData
		if err := model.DecodeKindData(resource, &data); err != nil {
			return "", err
		}
		return data.AuthInfo, nil
	default:
		return "", nil
	}
}
