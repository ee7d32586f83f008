package epp

import (
	"errors"
	"time"
)

var (
	// ErrMissingResult indicates construction without exactly one result.
	ErrMissingResult = errors.New("epp: response requires a result")
	// ErrMissingTrid indicates construction without a server transaction id.
	ErrMissingTrid = errors.New("epp: response requires a server transaction id")
)

// Trid pairs the client-supplied transaction identifier, which may be empty,
// with the server-assigned one, which never is.
type Trid struct {
	ClientTransactionID string `json:"clTRID,omitempty"`
	ServerTransactionID string `json:"svTRID"`
}

// MessageQueueInfo describes messages queued for retrieval. It may legally
// accompany any response but in practice appears only on poll responses.
type MessageQueueInfo struct {
	QueueLength     int       `json:"count"`
	MessageID       string    `json:"id"`
	QueueDate       time.Time `json:"qDate"`
	FirstMessageRef string    `json:"msg,omitempty"`
}

// ResponseData is the closed set of payload variants that may appear in a
// response's resData sequence. Implementations live in this package only.
type ResponseData interface {
	isResponseData()
}

// ResponseExtension is the closed set of protocol extension variants that
// may appear in a response's extension sequence.
type ResponseExtension interface {
	isResponseExtension()
}

// ResourceInfoData carries the target resource's visible fields for an info
// response.
type ResourceInfoData struct {
	RepoID       string   `json:"roid"`
	Name         string   `json:"name"`
	Sponsor      string   `json:"clID"`
	Statuses     []string `json:"status"`
	KindDataJSON string   `json:"data,omitempty"`
}

func (ResourceInfoData) isResponseData() {}

// CreateData echoes the name and creation time of a newly created resource.
type CreateData struct {
	Name         string    `json:"name"`
	CreationTime time.Time `json:"crDate"`
}

func (CreateData) isResponseData() {}

// PendingActionNotification reports the eventual outcome of an earlier
// action-pending command; delivered through the poll queue.
type PendingActionNotification struct {
	Name    string `json:"name"`
	Success bool   `json:"paResult"`
	Trid    Trid   `json:"paTRID"`
}

func (PendingActionNotification) isResponseData() {}

// Response represents one EPP response message. Commands are atomic, so a
// response reports either complete success or complete failure, never both.
// Wire serialization order is result, message queue info, resData,
// extensions, transaction ids.
type Response struct {
	result           Result
	trid             Trid
	messageQueueInfo *MessageQueueInfo
	resData          []ResponseData
	extensions       []ResponseExtension

	// Logging-only fields, never serialized to the client.
	executionTime time.Time
	createdRepoID string
}

// ResponseConfig carries every field of a Response; NewResponse validates it.
type ResponseConfig struct {
	Result           Result
	Trid             Trid
	MessageQueueInfo *MessageQueueInfo
	ResData          []ResponseData
	Extensions       []ResponseExtension
	ExecutionTime    time.Time
	CreatedRepoID    string
}

// NewResponse validates the config and returns an immutable Response.
func NewResponse(cfg ResponseConfig) (Response, error) {
	if cfg.Result.Code == 0 {
		return Response{}, ErrMissingResult
	}
	if cfg.Trid.ServerTransactionID == "" {
		return Response{}, ErrMissingTrid
	}
	resData := make([]ResponseData, len(cfg.ResData))
	copy(resData, cfg.ResData)
	extensions := make([]ResponseExtension, len(cfg.Extensions))
	copy(extensions, cfg.Extensions)
	return Response{
		result:           cfg.Result,
		trid:             cfg.Trid,
		messageQueueInfo: cfg.MessageQueueInfo,
		resData:          resData,
		extensions:       extensions,
		executionTime:    cfg.ExecutionTime,
		createdRepoID:    cfg.CreatedRepoID,
	}, nil
}

// Result returns the single result of the response.
func (r Response) Result() Result {
	return r.result
}

// Trid returns the response transaction identifiers.
func (r Response) Trid() Trid {
	return r.trid
}

// MessageQueueInfo returns queued-message metadata, or nil.
func (r Response) MessageQueueInfo() *MessageQueueInfo {
	return r.messageQueueInfo
}

// ResData returns the ordered payload sequence.
func (r Response) ResData() []ResponseData {
	out := make([]ResponseData, len(r.resData))
	copy(out, r.resData)
	return out
}

// Extensions returns the ordered extension sequence.
func (r Response) Extensions() []ResponseExtension {
	out := make([]ResponseExtension, len(r.extensions))
	copy(out, r.extensions)
	return out
}

// ExecutionTime returns when the command ran. Logging only; excluded from
// client serialization.
func (r Response) ExecutionTime() time.Time {
	return r.executionTime
}

// CreatedRepoID returns the repository id assigned by a create command, or
// empty. Logging only; excluded from client serialization.
func (r Response) CreatedRepoID() string {
	return r.createdRepoID
}

// ClientView is the client-facing shape of a Response, in wire element
// order. Logging-only fields are deliberately absent.
type ClientView struct {
	Result           Result              `json:"result"`
	MessageQueueInfo *MessageQueueInfo   `json:"msgQ,omitempty"`
	ResData          []ResponseData      `json:"resData,omitempty"`
	Extensions       []ResponseExtension `json:"extension,omitempty"`
	Trid             Trid                `json:"trID"`
}

// ClientView projects the response for the wire-encoding layer.
func (r Response) ClientView() ClientView {
	return ClientView{
		Result:           r.result,
		MessageQueueInfo: r.messageQueueInfo,
		ResData:          r.ResData(),
		Extensions:       r.Extensions(),
		Trid:             r.trid,
	}
}
