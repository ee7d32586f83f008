package flows

import (
	"github.com/EnCirca/nomulus/internal/epp"
	"github.com/EnCirca/nomulus/internal/model"
)

func (e *Engine) runInfo(fc *flowContext, detail InfoDetail) (*flowOutput, error) {
	target, err := e.loadTarget(fc, detail.Kind, detail.Name)
	if err != nil {
		return nil, err
	}

	// Info is readable by any authenticated registrar; only existence gates.
	if err := CheckAccess(GateInput{
		Resource:        target,
		ClientID:        model.ClientID(fc.clientID),
		Superuser:       fc.superuser,
		Operation:       OperationInfo,
		TransactionTime: fc.transactionTime,
		Kind:            detail.Kind,
		Name:            detail.Name,
	}); err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(target.Statuses))
	for _, status := range target.Statuses.Values() {
		statuses = append(statuses, status.String())
	}

	return &flowOutput{resData: []epp.ResponseData{epp.ResourceInfoData{
		RepoID:       target.RepoID,
		Name:         target.Name,
		Sponsor:      target.CurrentSponsorClientID,
		Statuses:     statuses,
		KindDataJSON: target.KindDataJSON,
	}}}, nil
}
