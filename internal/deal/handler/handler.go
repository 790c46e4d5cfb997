package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/deal/models"
	"dealroom/internal/deal/service"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	CreateTransaction(ctx context.Context, in service.CreateTransactionInput, actor id.UserID, role id.Role) (*models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID id.UserID) ([]*models.Transaction, error)
	CreateDDFromTransaction(ctx context.Context, transactionID id.TransactionID, actor id.UserID, targetCompleteDays int) (*service.DDResult, error)
	GetDDProject(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) (*models.DDProject, []*models.DDTask, error)
	AdvanceStage(ctx context.Context, transactionID id.TransactionID, target models.Stage, actor id.UserID) (*models.Transaction, error)
	CorrectStage(ctx context.Context, transactionID id.TransactionID, target models.Stage, reason string, actor id.UserID, role id.Role) (*models.Transaction, error)
	Cancel(ctx context.Context, transactionID id.TransactionID, reason string, actor id.UserID, role id.Role) (*models.Transaction, error)
	CompleteMilestone(ctx context.Context, transactionID id.TransactionID, milestoneID id.MilestoneID, actor id.UserID) (*models.Milestone, error)
	ListMilestones(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) ([]*models.Milestone, error)
	ListActivities(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) ([]*models.Activity, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the transaction routes. The caller must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transactions", h.HandleCreate)
	r.Get("/transactions", h.HandleList)
	r.Route("/transactions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Post("/dd-project", h.HandleCreateDD)
		r.Get("/dd-project", h.HandleGetDD)
		r.Post("/stage", h.HandleAdvance)
		r.Post("/stage/correct", h.HandleCorrect)
		r.Post("/cancel", h.HandleCancel)
		r.Get("/milestones", h.HandleListMilestones)
		r.Post("/milestones/{mid}/complete", h.HandleCompleteMilestone)
		r.Get("/activities", h.HandleListActivities)
	})
}

func transactionID(r *http.Request) (id.TransactionID, error) {
	return id.ParseTransactionID(chi.URLParam(r, "id"))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTransactionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.svc.CreateTransaction(ctx, req.input, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create transaction",
			"request_id", requestID,
			"listing_id", req.input.ListingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ts, err := h.svc.ListTransactions(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list transactions",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := h.svc.GetTransaction(ctx, txID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(t))
}

// HandleCreateDD answers 201 with the new project, or 409 with the one that
// already exists.
func (h *Handler) HandleCreateDD(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeOptionalAndPrepare[CreateDDRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.svc.CreateDDFromTransaction(ctx, txID, requestcontext.UserID(ctx), req.TargetCompleteDays)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAlreadyExists) && res != nil {
			httputil.WriteJSON(w, http.StatusConflict, DDConflictResponse{
				Error:    string(dErrors.CodeAlreadyExists),
				Existing: toDDProjectResponse(res.Project, res.Tasks, false),
			})
			return
		}
		h.logger.WarnContext(ctx, "failed to create dd project",
			"request_id", requestID,
			"transaction_id", txID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDDProjectResponse(res.Project, res.Tasks, res.Advanced))
}

func (h *Handler) HandleGetDD(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, tasks, err := h.svc.GetDDProject(ctx, txID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDDProjectResponse(p, tasks, false))
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[StageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.svc.AdvanceStage(ctx, txID, req.target, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "stage advance refused",
			"request_id", requestID,
			"transaction_id", txID,
			"target", req.target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CorrectStageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.svc.CorrectStage(ctx, txID, req.target, req.Reason, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.svc.Cancel(ctx, txID, req.Reason, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) HandleListMilestones(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ms, err := h.svc.ListMilestones(ctx, txID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]MilestoneResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMilestoneResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleCompleteMilestone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	milestoneID, err := id.ParseMilestoneID(chi.URLParam(r, "mid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.svc.CompleteMilestone(ctx, txID, milestoneID, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMilestoneResponse(m))
}

func (h *Handler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID, err := transactionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	as, err := h.svc.ListActivities(ctx, txID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, as)
}
