package flows

import (
	"time"

	"github.com/EnCirca/nomulus/internal/model"
)

// Operation names the command family being attempted against a resource.
type Operation string

const (
	OperationCreate   Operation = "create"
	OperationUpdate   Operation = "update"
	OperationDelete   Operation = "delete"
	OperationTransfer Operation = "transfer"
	OperationInfo     Operation = "info"
)

// Command is one parsed EPP command as delivered by the wire-decoding
// layer: the target, the requesting registrar, and the operation detail.
// TransactionTime zero means "use the engine clock".
type Command struct {
	ClientID            model.ClientID
	ClientTransactionID string
	TransactionTime     time.Time
	Detail              CommandDetail
}

// CommandDetail is the closed set of operation payloads.
type CommandDetail interface {
	Operation() Operation
	TargetKind() model.ResourceKind
	TargetName() model.ResourceName
}

// Fee is the acknowledged charge a client attached to a billable command.
type Fee struct {
	Currency string
	Amount   string
}

// CreateDetail provisions a new resource sponsored by the requesting
// registrar. Fee, when present, is echoed back on the response.
type CreateDetail struct {
	Kind     model.ResourceKind
	Name     model.ResourceName
	TLD      string
	KindData any
	Fee      *Fee
}

func (d CreateDetail) Operation() Operation { return OperationCreate }
func (d CreateDetail) TargetKind() model.ResourceKind { return d.Kind }
func (d CreateDetail) TargetName() model.ResourceName { return d.Name }

// UpdateDetail applies status deltas and kind-specific field changes.
type UpdateDetail struct {
	Kind           model.ResourceKind
	Name           model.ResourceName
	StatusAdds     []model.StatusValue
	StatusRemoves  []model.StatusValue
	ContactChanges *ContactUpdate
	DomainChanges  *DomainUpdate
	HostChanges    *HostUpdate
}

func (d UpdateDetail) Operation() Operation { return OperationUpdate }
func (d UpdateDetail) TargetKind() model.ResourceKind { return d.Kind }
func (d UpdateDetail) TargetName() model.ResourceName { return d.Name }

// ContactUpdate mutates contact fields. The two postal info variants behave
// as a pair: supplying exactly one clears the other, supplying both keeps
// both, supplying neither touches neither.
type ContactUpdate struct {
	LocalizedPostalInfo         *model.PostalInfo
	InternationalizedPostalInfo *model.PostalInfo
	Voice                       *string
	Email                       *string
	AuthInfo                    *string
}

// DomainUpdate mutates domain fields.
type DomainUpdate struct {
	AddNameservers    []string
	RemoveNameservers []string
	AuthInfo          *string
}

// HostUpdate mutates host addresses.
type HostUpdate struct {
	AddAddresses    []string
	RemoveAddresses []string
}

// DeleteDetail soft deletes the target as of the transaction time.
type DeleteDetail struct {
	Kind model.ResourceKind
	Name model.ResourceName
}

func (d DeleteDetail) Operation() Operation { return OperationDelete }
func (d DeleteDetail) TargetKind() model.ResourceKind { return d.Kind }
func (d DeleteDetail) TargetName() model.ResourceName { return d.Name }

// TransferDetail moves sponsorship to the requesting registrar when the
// supplied authorization information matches the resource's.
type TransferDetail struct {
	Kind     model.ResourceKind
	Name     model.ResourceName
	AuthInfo string
}

func (d TransferDetail) Operation() Operation { return OperationTransfer }
func (d TransferDetail) TargetKind() model.ResourceKind { return d.Kind }
func (d TransferDetail) TargetName() model.ResourceName { return d.Name }

// InfoDetail reads the target without mutating it.
type InfoDetail struct {
	Kind model.ResourceKind
	Name model.ResourceName
}

func (d InfoDetail) Operation() Operation { return OperationInfo }
func (d InfoDetail) TargetKind() model.ResourceKind { return d.Kind }
func (d InfoDetail) TargetName() model.ResourceName { return d.Name }
