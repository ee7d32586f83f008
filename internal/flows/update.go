package flows

import (
	"fmt"

	"github.com/EnCirca/nomulus/internal/history"
	"github.com/EnCirca/nomulus/internal/model"
	"github.com/EnCirca/nomulus/internal/storage"
)

func (e *Engine) runUpdate(fc *flowContext, detail UpdateDetail) error {
	target, err := e.loadTarget(fc, detail.Kind, detail.Name)
	if err != nil {
		return err
	}

	if err := CheckAccess(GateInput{
		Resource:        target,
		ClientID:        model.ClientID(fc.clientID),
		Superuser:       fc.superuser,
		Operation:       OperationUpdate,
		TransactionTime: fc.transactionTime,
		Kind:            detail.Kind,
		Name:            detail.Name,
	}); err != nil {
		return err
	}

	if err := validateStatusDeltas(fc, detail.StatusAdds, detail.StatusRemoves); err != nil {
		return err
	}
	if err := validateKindChanges(detail); err != nil {
		return err
	}

	// The kind payload is applied to a clone before the dry-run return so a
	// payload that cannot be decoded fails both modes identically.
	mutated := target.Clone()
	mutated.Statuses = mutated.Statuses.
		Difference(model.NewStatusSet(detail.StatusRemoves...)).
		Union(model.NewStatusSet(detail.StatusAdds...))
	if err := applyKindChanges(mutated, detail); err != nil {
		return err
	}

	if !fc.live {
		return nil
	}

	mutated.LastUpdateTimeMillis = fc.transactionTime.UnixMilli()
	mutated.Version = target.Version + 1

	return e.commitMutation(fc, mutated, target.Version, OperationUpdate)
}

// validateStatusDeltas rejects status values the requesting client may not
// add or remove itself. Superusers may touch any status.
func validateStatusDeltas(fc *flowContext, adds, removes []model.StatusValue) error {
	if fc.superuser {
		return nil
	}
	for _, status := range adds {
		if !status.ClientSettable() {
			return StatusNotClientSettableError{Status: status}
		}
	}
	for _, status := range removes {
		if !status.ClientSettable() {
			return StatusNotClientSettableError{Status: status}
		}
	}
	return nil
}

// validateKindChanges rejects a kind-specific change block attached to the
// wrong resource kind.
func validateKindChanges(detail UpdateDetail) error {
	switch detail.Kind {
	case model.KindContact:
		if detail.DomainChanges != nil || detail.HostChanges != nil {
			return SyntaxError{Detail: "contact update carries non-contact changes"}
		}
	case model.KindDomain:
		if detail.ContactChanges != nil || detail.HostChanges != nil {
			return SyntaxError{Detail: "domain update carries non-domain changes"}
		}
	case model.KindHost:
		if detail.ContactChanges != nil || detail.DomainChanges != nil {
			return SyntaxError{Detail: "host update carries non-host changes"}
		}
	}
	return nil
}

func applyKindChanges(resource *model.Resource, detail UpdateDetail) error {
	switch {
	case detail.ContactChanges != nil:
		return applyContactChanges(resource, detail.ContactChanges)
	case detail.DomainChanges != nil:
		return applyDomainChanges(resource, detail.DomainChanges)
	case detail.HostChanges != nil:
		return applyHostChanges(resource, detail.HostChanges)
	}
	return nil
}

// applyContactChanges applies contact field updates. The two postal info
// variants are a pair: an update supplying exactly one variant implicitly
// clears the other, supplying both keeps both, and supplying neither leaves
// both untouched.
func applyContactChanges(resource *model.Resource, changes *ContactUpdate) error {
	var data model.ContactData
	if err := model.DecodeKindData(resource, &data); err != nil {
		return err
	}

	localized, internationalized := changes.LocalizedPostalInfo, changes.InternationalizedPostalInfo
	switch {
	case localized != nil && internationalized != nil:
		data.LocalizedPostalInfo = localized
		data.InternationalizedPostalInfo = internationalized
	case localized != nil:
		data.LocalizedPostalInfo = localized
		data.InternationalizedPostalInfo = nil
	case internationalized != nil:
		data.InternationalizedPostalInfo = internationalized
		data.LocalizedPostalInfo = nil
	}

	if changes.Voice != nil {
		data.Voice = *changes.Voice
	}
	if changes.Email != nil {
		data.Email = *changes.Email
	}
	if changes.AuthInfo != nil {
		data.AuthInfo = *changes.AuthInfo
	}
	return model.EncodeKindData(resource, data)
}

func applyDomainChanges(resource *model.Resource, changes *DomainUpdate) error {
	var data model.DomainData
	if err := model.DecodeKindData(resource, &data); err != nil {
		return err
	}

	removals := make(map[string]bool, len(changes.RemoveNameservers))
	for _, ns := range changes.RemoveNameservers {
		removals[ns] = true
	}
	kept := make([]string, 0, len(data.Nameservers)+len(changes.AddNameservers))
	for _, ns := range data.Nameservers {
		if !removals[ns] {
			kept = append(kept, ns)
		}
	}
	present := make(map[string]bool, len(kept))
	for _, ns := range kept {
		present[ns] = true
	}
	for _, ns := range changes.AddNameservers {
		if !present[ns] {
			kept = append(kept, ns)
			present[ns] = true
		}
	}
	data.Nameservers = kept

	if changes.AuthInfo != nil {
		data.AuthInfo = *changes.AuthInfo
	}
	return model.EncodeKindData(resource, data)
}

func applyHostChanges(resource *model.Resource, changes *HostUpdate) error {
	var data model.HostData
	if err := model.DecodeKindData(resource, &data); err != nil {
		return err
	}

	removals := make(map[string]bool, len(changes.RemoveAddresses))
	for _, addr := range changes.RemoveAddresses {
		removals[addr] = true
	}
	kept := make([]string, 0, len(data.Addresses)+len(changes.AddAddresses))
	for _, addr := range data.Addresses {
		if !removals[addr] {
			kept = append(kept, addr)
		}
	}
	present := make(map[string]bool, len(kept))
	for _, addr := range kept {
		present[addr] = true
	}
	for _, addr := range changes.AddAddresses {
		if !present[addr] {
			kept = append(kept, addr)
			present[addr] = true
		}
	}
	data.Addresses = kept
	return model.EncodeKindData(resource, data)
}

// loadTarget reads the command's target as of the transaction time.
func (e *Engine) loadTarget(fc *flowContext, kind model.ResourceKind, name model.ResourceName) (*model.Resource, error) {
	target, err := storage.FindResourceAtTime(fc.tx, kind, name, fc.transactionTime)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, DoesNotExistError{Kind: kind, Name: name}
	}
	if target.Revisions == nil {
		// Data integrity bug upstream; never swallowed.
		return nil, fmt.Errorf("%w: %s", history.ErrNilRevisionIndex, target.RepoID)
	}
	return target, nil
}

// commitMutation writes the commit log record, installs the pruned revision
// index, and persists the mutated resource with a version check, all inside
// the flow's transaction.
func (e *Engine) commitMutation(fc *flowContext, mutated *model.Resource, expectedVersion int64, op Operation) error {
	if _, err := e.writer.Write(fc.tx, history.WriteInput{
		Resource:            mutated,
		TransactionTime:     fc.transactionTime,
		Operation:           string(op),
		ClientID:            fc.clientID,
		ClientTransactionID: fc.trid.ClientTransactionID,
		ServerTransactionID: fc.trid.ServerTransactionID,
	}); err != nil {
		return err
	}
	return storage.SaveResourceVersioned(fc.tx, mutated, expectedVersion)
}
