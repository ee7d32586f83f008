package flows

import (
	"errors"
	"testing"
	"time"

	"github.com/EnCirca/nomulus/internal/model"
)

func activeResource(t *testing.T, statuses ...model.StatusValue) *model.Resource {
	t.Helper()
	created := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	if len(statuses) == 0 {
		statuses = []model.StatusValue{model.StatusOK}
	}
	return &model.Resource{
		RepoID:                 "repo-1",
		Kind:                   model.KindContact,
		Name:                   "sh8013",
		CurrentSponsorClientID: "TheRegistrar",
		Statuses:               model.NewStatusSet(statuses...),
		Revisions:              model.NewRevisionIndex(),
		CreationTimeMillis:     created.UnixMilli(),
		LastUpdateTimeMillis:   created.UnixMilli(),
		Version:                1,
	}
}

func gateTime() time.Time {
	return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func TestCheckAccessRejectsNonSponsor(t *testing.T) {
	err := CheckAccess(GateInput{
		Resource:        activeResource(t),
		ClientID:        "NewRegistrar",
		Operation:       OperationUpdate,
		TransactionTime: gateTime(),
		Kind:            model.KindContact,
		Name:            "sh8013",
	})
	var notOwned NotOwnedError
	if !errors.As(err, &notOwned) {
		t.Fatalf("expected NotOwnedError, got %v", err)
	}
}

func TestCheckAccessSuperuserBypassesOwnership(t *testing.T) {
	err := CheckAccess(GateInput{
		Resource:        activeResource(t),
		ClientID:        "NewRegistrar",
		Superuser:       true,
		Operation:       OperationUpdate,
		TransactionTime: gateTime(),
		Kind:            model.KindContact,
		Name:            "sh8013",
	})
	if err != nil {
		t.Fatalf("expected superuser to bypass ownership, got %v", err)
	}
}

func TestCheckAccessProhibitionScope(t *testing.T) {
	tests := []struct {
		name      string
		status    model.StatusValue
		operation Operation
		superuser bool
		wantErr   any
	}{
		{name: "client-update-prohibited", status: model.StatusClientUpdateProhibited, operation: OperationUpdate, wantErr: &ClientProhibitedError{}},
		{name: "client-update-prohibited-superuser", status: model.StatusClientUpdateProhibited, operation: OperationUpdate, superuser: true, wantErr: nil},
		{name: "server-update-prohibited", status: model.StatusServerUpdateProhibited, operation: OperationUpdate, wantErr: &ServerProhibitedError{}},
		{name: "server-update-prohibited-superuser", status: model.StatusServerUpdateProhibited, operation: OperationUpdate, superuser: true, wantErr: &ServerProhibitedError{}},
		{name: "client-delete-prohibited", status: model.StatusClientDeleteProhibited, operation: OperationDelete, wantErr: &ClientProhibitedError{}},
		{name: "server-delete-prohibited-superuser", status: model.StatusServerDeleteProhibited, operation: OperationDelete, superuser: true, wantErr: &ServerProhibitedError{}},
		{name: "client-transfer-prohibited", status: model.StatusClientTransferProhibited, operation: OperationTransfer, wantErr: &ClientProhibitedError{}},
		{name: "pending-delete-blocks-update", status: model.StatusPendingDelete, operation: OperationUpdate, superuser: true, wantErr: &ServerProhibitedError{}},
		{name: "unrelated-status-allows-update", status: model.StatusClientDeleteProhibited, operation: OperationUpdate, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAccess(GateInput{
				Resource:        activeResource(t, tt.status),
				ClientID:        "TheRegistrar",
				Superuser:       tt.superuser,
				Operation:       tt.operation,
				TransactionTime: gateTime(),
				SkipOwnership:   tt.operation == OperationTransfer,
				Kind:            model.KindContact,
				Name:            "sh8013",
			})
			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
			case *ClientProhibitedError:
				if !errors.As(err, want) {
					t.Fatalf("expected ClientProhibitedError, got %v", err)
				}
			case *ServerProhibitedError:
				if !errors.As(err, want) {
					t.Fatalf("expected ServerProhibitedError, got %v", err)
				}
			}
		})
	}
}

func TestCheckAccessDeletedResourceDoesNotExist(t *testing.T) {
	resource := activeResource(t)
	resource.DeletionTimeMillis = gateTime().Add(-time.Hour).UnixMilli()

	err := CheckAccess(GateInput{
		Resource:        resource,
		ClientID:        "TheRegistrar",
		Superuser:       true,
		Operation:       OperationUpdate,
		TransactionTime: gateTime(),
		Kind:            model.KindContact,
		Name:            "sh8013",
	})
	var doesNotExist DoesNotExistError
	if !errors.As(err, &doesNotExist) {
		t.Fatalf("expected DoesNotExistError even for superuser, got %v", err)
	}
}

func TestCheckAccessInfoIgnoresOwnership(t *testing.T) {
	err := CheckAccess(GateInput{
		Resource:        activeResource(t),
		ClientID:        "NewRegistrar",
		Operation:       OperationInfo,
		TransactionTime: gateTime(),
		Kind:            model.KindContact,
		Name:            "sh8013",
	})
	if err != nil {
		t.Fatalf("expected info to ignore ownership, got %v", err)
	}
}
