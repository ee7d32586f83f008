package flows

import (
	"context"
	"errors"
	"time"

	"github.com/EnCirca/nomulus/internal/epp"
	"github.com/EnCirca/nomulus/internal/history"
	"github.com/EnCirca/nomulus/internal/storage"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommitMode selects whether a flow run persists its mutation or only
// validates it.
type CommitMode int

const (
	// CommitModeLive applies and persists the mutation.
	CommitModeLive CommitMode = iota
	// CommitModeDryRun stops after validation; stored state is untouched,
	// and the response is identical to what a live run would produce.
	CommitModeDryRun
)

// UserPrivileges selects the caller's privilege level.
type UserPrivileges int

const (
	// PrivilegesNormal enforces ownership and all prohibition statuses.
	PrivilegesNormal UserPrivileges = iota
	// PrivilegesSuperuser bypasses ownership and client-settable
	// prohibitions. Server-settable prohibitions still apply.
	PrivilegesSuperuser
)

var (
	errMissingDatabase      = errors.New("database handle is required")
	errMissingHistoryWriter = errors.New("history writer is required")
	errMissingIDProvider    = errors.New("id provider is required")
	errMissingDetail        = errors.New("command detail is required")
)

// IDProvider issues server transaction ids and repository ids.
type IDProvider interface {
	NewID() (string, error)
}

// EngineConfig describes the dependencies of an Engine.
type EngineConfig struct {
	Database      *gorm.DB
	HistoryWriter *history.Writer
	Clock         func() time.Time
	IDProvider    IDProvider
	Logger        *zap.Logger
	// MaxAttempts bounds transaction retries on contention; zero means the
	// default of three.
	MaxAttempts int
}

const defaultMaxAttempts = 3

// Engine runs EPP commands: one storage transaction per attempt, a bounded
// retry loop around contention, and exactly one Result per response.
type Engine struct {
	db          *gorm.DB
	writer      *history.Writer
	clock       func() time.Time
	idProvider  IDProvider
	logger      *zap.Logger
	maxAttempts int
}

// NewEngine constructs an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.HistoryWriter == nil {
		return nil, errMissingHistoryWriter
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Engine{
		db:          cfg.Database,
		writer:      cfg.HistoryWriter,
		clock:       clock,
		idProvider:  cfg.IDProvider,
		logger:      logger,
		maxAttempts: maxAttempts,
	}, nil
}

// Run executes one command to completion. Deterministic, client-caused
// failures come back as a response whose single Result carries the error
// code; contention is retried up to the attempt bound and then reported as
// a command-failed Result. A non-nil error means an internal failure that
// no retry or result code can express.
func (e *Engine) Run(ctx context.Context, cmd Command, mode CommitMode, privileges UserPrivileges) (epp.Response, error) {
	if cmd.Detail == nil {
		return epp.Response{}, errMissingDetail
	}

	serverTransactionID, err := e.idProvider.NewID()
	if err != nil {
		return epp.Response{}, err
	}
	trid := epp.Trid{
		ClientTransactionID: cmd.ClientTransactionID,
		ServerTransactionID: serverTransactionID,
	}

	executionTime := cmd.TransactionTime
	if executionTime.IsZero() {
		executionTime = e.clock()
	}
	executionTime = executionTime.UTC()

	var resp epp.Response
	attempt := func() error {
		attemptResp, attemptErr := e.runOnce(ctx, cmd, mode, privileges, executionTime, trid)
		if attemptErr != nil {
			if errors.Is(attemptErr, storage.ErrContention) {
				return attemptErr
			}
			return backoff.Permanent(attemptErr)
		}
		resp = attemptResp
		return nil
	}

	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(newAttemptBackOff(), uint64(e.maxAttempts-1)), ctx)
	runErr := backoff.Retry(attempt, retryPolicy)
	if runErr == nil {
		return resp, nil
	}

	if errors.Is(runErr, storage.ErrContention) {
		e.logger.Warn("transaction contention exhausted retries",
			zap.String("operation", string(cmd.Detail.Operation())),
			zap.String("target", cmd.Detail.TargetName().String()),
			zap.Int("attempts", e.maxAttempts))
		return e.failureResponse(epp.NewResult(epp.CodeCommandFailed), trid, executionTime)
	}

	var flowErr FlowError
	if errors.As(runErr, &flowErr) {
		e.logger.Info("command rejected",
			zap.String("operation", string(cmd.Detail.Operation())),
			zap.String("target", cmd.Detail.TargetName().String()),
			zap.String("client_id", cmd.ClientID.String()),
			zap.Error(flowErr))
		return e.failureResponse(flowErr.EppResult(), trid, executionTime)
	}

	e.logger.Error("command failed internally",
		zap.String("operation", string(cmd.Detail.Operation())),
		zap.String("target", cmd.Detail.TargetName().String()),
		zap.Error(runErr))
	return epp.Response{}, runErr
}

func newAttemptBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond
	return policy
}

// flowContext carries per-attempt state shared by every flow.
type flowContext struct {
	tx              *gorm.DB
	clientID        string
	superuser       bool
	live            bool
	transactionTime time.Time
	trid            epp.Trid
}

// flowOutput is the success payload a flow contributes to the response.
type flowOutput struct {
	resData       []epp.ResponseData
	extensions    []epp.ResponseExtension
	createdRepoID string
}

func (e *Engine) runOnce(ctx context.Context, cmd Command, mode CommitMode, privileges UserPrivileges, executionTime time.Time, trid epp.Trid) (epp.Response, error) {
	var out *flowOutput

	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fc := &flowContext{
			tx:              tx,
			clientID:        cmd.ClientID.String(),
			superuser:       privileges == PrivilegesSuperuser,
			live:            mode == CommitModeLive,
			transactionTime: executionTime,
			trid:            trid,
		}

		var flowErr error
		switch detail := cmd.Detail.(type) {
		case CreateDetail:
			out, flowErr = e.runCreate(fc, detail)
		case UpdateDetail:
			flowErr = e.runUpdate(fc, detail)
		case DeleteDetail:
			out, flowErr = e.runDelete(fc, detail)
		case TransferDetail:
			flowErr = e.runTransfer(fc, detail)
		case InfoDetail:
			out, flowErr = e.runInfo(fc, detail)
		default:
			flowErr = SyntaxError{Detail: "unsupported command detail"}
		}
		return flowErr
	})
	if txErr != nil {
		return epp.Response{}, txErr
	}
	if out == nil {
		out = &flowOutput{}
	}

	return epp.NewResponse(epp.ResponseConfig{
		Result:        epp.NewResult(epp.CodeSuccess),
		Trid:          trid,
		ResData:       out.resData,
		Extensions:    out.extensions,
		ExecutionTime: executionTime,
		CreatedRepoID: out.createdRepoID,
	})
}

func (e *Engine) failureResponse(result epp.Result, trid epp.Trid, executionTime time.Time) (epp.Response, error) {
	return epp.NewResponse(epp.ResponseConfig{
		Result:        result,
		Trid:          trid,
		ExecutionTime: executionTime,
	})
}
