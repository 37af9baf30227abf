package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	activationUsecases "github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	allocationUsecases "github.com/RobertLogos32/bto-prova/internal/application/allocation/usecases"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	lifecycleUsecases "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/middleware"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
	"github.com/RobertLogos32/bto-prova/internal/shared/utils"
)

const (
	decisionApprove = "approve"
	decisionDeny    = "deny"
)

type PendingLister interface {
	Clients(ctx context.Context, actor int64) ([]*dto.ClientDTO, error)
	Requests(ctx context.Context, actor int64) ([]*dto.RequestDTO, error)
}

type ClientDecider interface {
	Approve(ctx context.Context, platformID, actor int64) (*lifecycleUsecases.DecideClientResult, error)
	Deny(ctx context.Context, platformID, actor int64) (*lifecycleUsecases.DecideClientResult, error)
}

type ClientOverviewer interface {
	Execute(ctx context.Context, platformID int64) (*lifecycleUsecases.ClientOverviewResult, error)
}

type RequestDenier interface {
	Deny(ctx context.Context, requestSID string, actor int64) (*lifecycleUsecases.DecideRequestResult, error)
}

type RequestApprover interface {
	Execute(ctx context.Context, requestSID string, actor int64) (*allocationUsecases.ApproveAndAllocateResult, error)
}

type AllocationRetrier interface {
	Execute(ctx context.Context, requestSID string, actor int64) (*allocationUsecases.RetryAllocationResult, error)
}

type UnallocatedLister interface {
	Execute(ctx context.Context, actor int64) ([]*dto.RequestDTO, error)
}

type BalanceReader interface {
	Execute(ctx context.Context, actor int64) (string, error)
}

type CodeAwaiter interface {
	Execute(ctx context.Context, cmd activationUsecases.AwaitCodeCommand) (*activationUsecases.AwaitCodeResult, error)
}

// DecisionAnnouncer tells clients about decisions taken over HTTP.
type DecisionAnnouncer interface {
	ClientDecided(ctx context.Context, c *dto.ClientDTO, approved bool)
	NumberAssigned(ctx context.Context, r *dto.RequestDTO, alloc *dto.AllocationDTO)
	RequestDenied(ctx context.Context, r *dto.RequestDTO)
}

// AdminUseCases groups the operations exposed to operators over HTTP.
type AdminUseCases struct {
	ListPending        PendingLister
	DecideClient       ClientDecider
	ClientOverview     ClientOverviewer
	DenyRequest        RequestDenier
	ApproveAndAllocate RequestApprover
	RetryAllocation    AllocationRetrier
	ListUnallocated    UnallocatedLister
	GetBalance         BalanceReader
	AwaitCode          CodeAwaiter
}

// AdminHandler serves /api/admin. The acting operator comes from the
// admin auth middleware.
type AdminHandler struct {
	uc       AdminUseCases
	announce DecisionAnnouncer
	logger   logger.Interface
}

// NewAdminHandler creates the handler. announce may be nil when no chat
// front end is configured.
func NewAdminHandler(uc AdminUseCases, announce DecisionAnnouncer, logger logger.Interface) *AdminHandler {
	return &AdminHandler{
		uc:       uc,
		announce: announce,
		logger:   logger,
	}
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve deny"`
}

type AwaitCodeQuery struct {
	TimeoutSeconds int `json:"timeout_seconds" validate:"omitempty,min=1,max=600"`
	StepSeconds    int `json:"step_seconds" validate:"omitempty,min=1,max=60"`
}

type AllocationResponse struct {
	Request    *dto.RequestDTO    `json:"request"`
	Allocation *dto.AllocationDTO `json:"allocation,omitempty"`
	// AllocationError is set when an approved request could not get a number.
	AllocationError string `json:"allocation_error,omitempty"`
	Existing        bool   `json:"existing,omitempty"`
}

type AwaitCodeResponse struct {
	AllocationSID string `json:"allocation_sid"`
	State         string `json:"state"`
	Code          string `json:"code,omitempty"`
}

// ListPendingClients handles GET /api/admin/clients/pending
func (h *AdminHandler) ListPendingClients(c *gin.Context) {
	items, err := h.uc.ListPending.Clients(c.Request.Context(), actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, items, len(items))
}

// GetClient handles GET /api/admin/clients/:platform_id
func (h *AdminHandler) GetClient(c *gin.Context) {
	platformID, ok := parsePlatformID(c)
	if !ok {
		return
	}
	res, err := h.uc.ClientOverview.Execute(c.Request.Context(), platformID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"client":      res.Client,
		"allocations": res.Allocations,
	})
}

// DecideClient handles POST /api/admin/clients/:platform_id/decision
func (h *AdminHandler) DecideClient(c *gin.Context) {
	platformID, ok := parsePlatformID(c)
	if !ok {
		return
	}
	req, ok := bindDecision(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	approve := req.Decision == decisionApprove
	decide := h.uc.DecideClient.Deny
	if approve {
		decide = h.uc.DecideClient.Approve
	}
	res, err := decide(ctx, platformID, actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if h.announce != nil {
		h.announce.ClientDecided(context.WithoutCancel(ctx), res.Client, approve)
	}
	utils.SuccessResponse(c, http.StatusOK, "client "+res.Client.Status, res.Client)
}

// ListPendingRequests handles GET /api/admin/requests/pending
func (h *AdminHandler) ListPendingRequests(c *gin.Context) {
	items, err := h.uc.ListPending.Requests(c.Request.Context(), actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, items, len(items))
}

// ListUnallocatedRequests handles GET /api/admin/requests/unallocated
func (h *AdminHandler) ListUnallocatedRequests(c *gin.Context) {
	items, err := h.uc.ListUnallocated.Execute(c.Request.Context(), actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, items, len(items))
}

// DecideRequest handles POST /api/admin/requests/:sid/decision. Approval
// allocates a number right away; a provider failure still answers 200 with
// allocation_error set since the approval itself stands.
func (h *AdminHandler) DecideRequest(c *gin.Context) {
	sid := strings.TrimSpace(c.Param("sid"))
	req, ok := bindDecision(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if req.Decision == decisionDeny {
		res, err := h.uc.DenyRequest.Deny(ctx, sid, actor(c))
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		if h.announce != nil {
			h.announce.RequestDenied(context.WithoutCancel(ctx), res.Request)
		}
		utils.SuccessResponse(c, http.StatusOK, "request denied", AllocationResponse{Request: res.Request})
		return
	}

	res, err := h.uc.ApproveAndAllocate.Execute(ctx, sid, actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	resp := AllocationResponse{Request: res.Request, Allocation: res.Allocation}
	if res.AllocationErr != nil {
		h.logger.Warnw("request approved without a number",
			"request_sid", sid,
			"error", res.AllocationErr,
		)
		resp.AllocationError = allocationErrorMessage(res.AllocationErr)
		utils.SuccessResponse(c, http.StatusOK, "request approved, allocation failed", resp)
		return
	}
	if h.announce != nil {
		h.announce.NumberAssigned(context.WithoutCancel(ctx), res.Request, res.Allocation)
	}
	utils.SuccessResponse(c, http.StatusOK, "request approved", resp)
}

// AllocateRequest handles POST /api/admin/requests/:sid/allocate
func (h *AdminHandler) AllocateRequest(c *gin.Context) {
	sid := strings.TrimSpace(c.Param("sid"))
	ctx := c.Request.Context()

	res, err := h.uc.RetryAllocation.Execute(ctx, sid, actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !res.Existing && h.announce != nil {
		h.announce.NumberAssigned(context.WithoutCancel(ctx), res.Request, res.Allocation)
	}

	resp := AllocationResponse{Request: res.Request, Allocation: res.Allocation, Existing: res.Existing}
	if res.Existing {
		utils.SuccessResponse(c, http.StatusOK, "request already allocated", resp)
		return
	}
	utils.CreatedResponse(c, resp, "number allocated")
}

// GetProviderBalance handles GET /api/admin/provider/balance
func (h *AdminHandler) GetProviderBalance(c *gin.Context) {
	balance, err := h.uc.GetBalance.Execute(c.Request.Context(), actor(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"balance": balance})
}

// AwaitCode handles POST /api/admin/allocations/:sid/await. It blocks until
// a code arrives or the timeout expires.
func (h *AdminHandler) AwaitCode(c *gin.Context) {
	sid := strings.TrimSpace(c.Param("sid"))

	var q AwaitCodeQuery
	var err error
	if q.TimeoutSeconds, err = queryInt(c, "timeout_seconds"); err == nil {
		q.StepSeconds, err = queryInt(c, "step_seconds")
	}
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid query parameter", err.Error()))
		return
	}
	if err := utils.ValidateStruct(&q); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	res, err := h.uc.AwaitCode.Execute(c.Request.Context(), activationUsecases.AwaitCodeCommand{
		AllocationSID: sid,
		Step:          time.Duration(q.StepSeconds) * time.Second,
		Timeout:       time.Duration(q.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", AwaitCodeResponse{
		AllocationSID: sid,
		State:         res.State.String(),
		Code:          res.Code,
	})
}

func actor(c *gin.Context) int64 {
	id, _ := middleware.GetOperatorID(c)
	return id
}

func parsePlatformID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("platform_id"), 10, 64)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("platform_id must be numeric"))
		return 0, false
	}
	return id, true
}

func bindDecision(c *gin.Context) (*DecisionRequest, bool) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
		return nil, false
	}
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return nil, false
	}
	return &req, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func allocationErrorMessage(err error) string {
	if appErr := errors.GetAppError(err); appErr != nil {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return err.Error()
}
