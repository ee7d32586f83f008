package flows

import (
	"fmt"
	"strings"

	"github.com/EnCirca/nomulus/internal/epp"
	"github.com/EnCirca/nomulus/internal/history"
	"github.com/EnCirca/nomulus/internal/model"
	"github.com/EnCirca/nomulus/internal/storage"
)

func (e *Engine) runCreate(fc *flowContext, detail CreateDetail) (*flowOutput, error) {
	exists, err := storage.ResourceExists(fc.tx, detail.Kind, detail.Name, fc.transactionTime)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, AlreadyExistsError{Kind: detail.Kind, Name: detail.Name}
	}

	tld := detail.TLD
	if detail.Kind == model.KindDomain {
		if tld == "" {
			tld = deriveTLD(detail.Name)
		}
		if tld == "" {
			return nil, PolicyError{Detail: fmt.Sprintf("domain name %s has no TLD", detail.Name)}
		}
	}

	repoID, err := e.idProvider.NewID()
	if err != nil {
		return nil, fmt.Errorf("flows: generating repo id: %w", err)
	}

	out := &flowOutput{
		resData: []epp.ResponseData{epp.CreateData{
			Name:         detail.Name.String(),
			CreationTime: fc.transactionTime,
		}},
		createdRepoID: repoID,
	}
	if detail.Fee != nil {
		out.extensions = append(out.extensions, epp.FeeExtension{
			CurrencyCode: detail.Fee.Currency,
			FeeAmount:    detail.Fee.Amount,
		})
	}

	if !fc.live {
		return out, nil
	}

	resource := &model.Resource{
		RepoID:                 repoID,
		Kind:                   detail.Kind,
		Name:                   detail.Name.String(),
		TLD:                    tld,
		CurrentSponsorClientID: fc.clientID,
		Statuses:               model.NewStatusSet(model.StatusOK),
		// Initialized to empty before first commit; insertion requires
		// prior state to prune against.
		Revisions:            model.NewRevisionIndex(),
		CreationTimeMillis:   fc.transactionTime.UnixMilli(),
		LastUpdateTimeMillis: fc.transactionTime.UnixMilli(),
		Version:              1,
	}
	if detail.KindData != nil {
		if err := model.EncodeKindData(resource, detail.KindData); err != nil {
			return nil, err
		}
	}

	if _, err := e.writer.Write(fc.tx, history.WriteInput{
		Resource:            resource,
		TransactionTime:     fc.transactionTime,
		Operation:           string(OperationCreate),
		ClientID:            fc.clientID,
		ClientTransactionID: fc.trid.ClientTransactionID,
		ServerTransactionID: fc.trid.ServerTransactionID,
	}); err != nil {
		return nil, err
	}
	if err := storage.CreateResource(fc.tx, resource); err != nil {
		return nil, err
	}
	return out, nil
}

func deriveTLD(name model.ResourceName) string {
	if dot := strings.Index(name.String(), "."); dot >= 0 {
		return name.String()[dot+1:]
	}
	return ""
}
