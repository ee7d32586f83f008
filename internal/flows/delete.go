package flows

import (
	"github.com/EnCirca/nomulus/internal/epp"
	"github.com/EnCirca/nomulus/internal/model"
)

func (e *Engine) runDelete(fc *flowContext, detail DeleteDetail) (*flowOutput, error) {
	target, err := e.loadTarget(fc, detail.Kind, detail.Name)
	if err != nil {
		return nil, err
	}

	if err := CheckAccess(GateInput{
		Resource:        target,
		ClientID:        model.ClientID(fc.clientID),
		Superuser:       fc.superuser,
		Operation:       OperationDelete,
		TransactionTime: fc.transactionTime,
		Kind:            detail.Kind,
		Name:            detail.Name,
	}); err != nil {
		return nil, err
	}

	out := &flowOutput{}
	if detail.Kind == model.KindDomain {
		// Deleted domains enter the redemption grace period before the name
		// is released.
		out.extensions = append(out.extensions, epp.RedemptionGracePeriodExtension{
			Statuses: []string{"redemptionPeriod"},
		})
	}

	if !fc.live {
		return out, nil
	}

	// Soft delete: the row stays for audit and point-in-time reads, but the
	// resource no longer exists at or after the transaction time.
	mutated := target.Clone()
	mutated.Statuses = mutated.Statuses.Union(model.NewStatusSet(model.StatusPendingDelete))
	mutated.DeletionTimeMillis = fc.transactionTime.UnixMilli()
	mutated.LastUpdateTimeMillis = fc.transactionTime.UnixMilli()
	mutated.Version = target.Version + 1

	if err := e.commitMutation(fc, mutated, target.Version, OperationDelete); err != nil {
		return nil, err
	}
	return out, nil
}
