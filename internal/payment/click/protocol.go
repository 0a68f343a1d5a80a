package click

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/repository"
)

// Store is the persistence the protocol needs. Complete must update the
// Click row and the payment row atomically.
type Store interface {
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByClickTransID(ctx context.Context, clickTransID string) (*domain.ClickTransaction, error)
	Create(ctx context.Context, in domain.ClickTransaction) (*domain.ClickTransaction, error)
	Get(ctx context.Context, id int64, clickTransID string) (*domain.ClickTransaction, error)
	Cancel(ctx context.Context, id int64, code int, note string) error
	Complete(ctx context.Context, clickID, transactionID int64, clickTransID string) error
}

// Protocol runs the Prepare/Complete exchange for the local tenant.
type Protocol struct {
	Store   Store
	Tenant  config.ClickTenant
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Handle dispatches on action and always returns a well-formed response.
func (p Protocol) Handle(ctx context.Context, req Request) (resp Response) {
	action := req.ActionCode()
	defer func() {
		if rec := recover(); rec != nil {
			p.logger().Error("click handler panic", "panic", rec, "click_trans_id", req.ClickTransID)
			resp = reply(req, CodeSystemError, noteSystemError)
		}
		p.Metrics.ClickRequest(actionName(action), resp.Error)
	}()

	switch action {
	case ActionPrepare:
		return p.Prepare(ctx, req)
	case ActionComplete:
		return p.Complete(ctx, req)
	default:
		return reply(req, CodeActionNotFound, noteActionNotFound)
	}
}

// checkTenant runs the checks shared by both phases, in order: tenant
// enabled, service id, signature.
func (p Protocol) checkTenant(req Request) (Response, bool) {
	if !p.Tenant.Enabled || p.Tenant.SecretKey == "" {
		return reply(req, CodeSystemError, noteDisabled), false
	}
	if req.ServiceID.String() != p.Tenant.ServiceID {
		return reply(req, CodeNotFound, noteServiceNotFound), false
	}
	if !VerifySign(req, p.Tenant.SecretKey) {
		p.logger().Warn("click sign check failed",
			"click_trans_id", req.ClickTransID, "merchant_trans_id", req.MerchantTransID, "action", req.Action)
		return reply(req, CodeSignFailed, noteSignFailed), false
	}
	return Response{}, true
}

func (p Protocol) Prepare(ctx context.Context, req Request) Response {
	if resp, ok := p.checkTenant(req); !ok {
		return resp
	}

	txID, err := req.MerchantTransID.Int64()
	if err != nil {
		return reply(req, CodeNotFound, noteTxNotFound)
	}
	tx, err := p.Store.GetTransaction(ctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return reply(req, CodeNotFound, noteTxNotFound)
	}
	if err != nil {
		return p.systemError(req, "load transaction", err)
	}
	switch tx.Status {
	case domain.TransactionPending:
	case domain.TransactionPaid, domain.TransactionPartialPaid:
		return reply(req, CodeAlreadyPaid, noteAlreadyPaid)
	default:
		return reply(req, CodeCancelled, noteCancelled)
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.Equal(tx.Amount) {
		return reply(req, CodeBadAmount, noteBadAmount)
	}

	if _, err := p.Store.GetByClickTransID(ctx, req.ClickTransID.String()); err == nil {
		return reply(req, CodeAlreadyPaid, noteAlreadyPaid)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return p.systemError(req, "lookup click transaction", err)
	}

	created, err := p.Store.Create(ctx, domain.ClickTransaction{
		ClickTransID:    req.ClickTransID.String(),
		ServiceID:       req.ServiceID.String(),
		ClickPaydocID:   req.ClickPaydocID.String(),
		MerchantTransID: req.MerchantTransID.String(),
		Amount:          amount,
		Action:          ActionPrepare,
		Status:          domain.ClickCreated,
		Error:           req.ErrorCode(),
		ErrorNote:       req.ErrorNote,
		SignTime:        req.SignTime,
	})
	if errors.Is(err, repository.ErrConflict) {
		return reply(req, CodeAlreadyPaid, noteAlreadyPaid)
	}
	if err != nil {
		return p.systemError(req, "create click transaction", err)
	}

	resp := reply(req, CodeSuccess, noteSuccess)
	resp.MerchantPrepareID = &created.ID
	resp.SignString = ResponseSign(req, p.Tenant.SecretKey, created.ID)
	return resp
}

func (p Protocol) Complete(ctx context.Context, req Request) Response {
	if resp, ok := p.checkTenant(req); !ok {
		return resp
	}

	prepareID, err := req.MerchantPrepareID.Int64()
	if err != nil {
		return reply(req, CodeTransactionMissing, noteTxMissing)
	}
	ct, err := p.Store.Get(ctx, prepareID, req.ClickTransID.String())
	if errors.Is(err, repository.ErrNotFound) {
		return reply(req, CodeTransactionMissing, noteTxMissing)
	}
	if err != nil {
		return p.systemError(req, "load click transaction", err)
	}

	signed := func(code int, note string) Response {
		resp := reply(req, code, note)
		resp.MerchantPrepareID = &ct.ID
		resp.SignString = ResponseSign(req, p.Tenant.SecretKey, ct.ID)
		return resp
	}

	switch ct.Status {
	case domain.ClickCompleted:
		return signed(CodeAlreadyPaid, noteAlreadyPaid)
	case domain.ClickCancelled:
		return signed(CodeCancelled, noteCancelled)
	}

	if code := req.ErrorCode(); code < 0 {
		note := req.ErrorNote
		if note == "" {
			note = "cancelled by gateway"
		}
		if err := p.Store.Cancel(ctx, ct.ID, code, note); err != nil && !errors.Is(err, repository.ErrConflict) {
			return p.systemError(req, "cancel click transaction", err)
		}
		p.logger().Info("click payment cancelled", "click_trans_id", ct.ClickTransID, "error", code)
		return signed(CodeSuccess, noteCancelled)
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.Equal(ct.Amount) {
		return signed(CodeBadAmount, noteBadAmount)
	}

	txID, err := strconv.ParseInt(ct.MerchantTransID, 10, 64)
	if err != nil {
		return p.systemError(req, "parse merchant_trans_id", err)
	}
	err = p.Store.Complete(ctx, ct.ID, txID, ct.ClickTransID)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return signed(CodeAlreadyPaid, noteAlreadyPaid)
	case errors.Is(err, repository.ErrPaymentClosed):
		if cerr := p.Store.Cancel(ctx, ct.ID, CodeCancelled, noteCancelled); cerr != nil && !errors.Is(cerr, repository.ErrConflict) {
			return p.systemError(req, "cancel click transaction", cerr)
		}
		p.logger().Info("click payment refused, transaction closed", "click_trans_id", ct.ClickTransID, "transaction_id", txID)
		return signed(CodeCancelled, noteCancelled)
	case errors.Is(err, repository.ErrNotFound):
		return signed(CodeNotFound, noteTxNotFound)
	case err != nil:
		return p.systemError(req, "complete click transaction", err)
	}

	p.logger().Info("click payment completed", "click_trans_id", ct.ClickTransID, "transaction_id", txID)
	resp := signed(CodeSuccess, noteSuccess)
	resp.MerchantConfirmID = &ct.ID
	return resp
}

func (p Protocol) systemError(req Request, op string, err error) Response {
	p.logger().Error("click "+op, "err", err, "click_trans_id", req.ClickTransID)
	return reply(req, CodeSystemError, noteSystemError)
}

func (p Protocol) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

var _ Store = repository.ClickTransactionRepository{}
