package leave

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/employee"
	"go-leavedesk/internal/middleware"
	"go-leavedesk/internal/shared/apperror"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityResolver links the authenticated actor to an employee record,
// provisioning one when the actor has none yet.
type IdentityResolver interface {
	EnsureForIdentity(ctx context.Context, actor contextutil.Actor) (employee.EmployeeResponse, error)
}

type Handler struct {
	service    Service
	identities IdentityResolver
	access     middleware.RBACService
	logger     *zap.Logger
}

func NewHandler(service Service, identities IdentityResolver, access middleware.RBACService, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, identities: identities, access: access, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeValidationError(c *gin.Context, err error) {
	h.logger.Warn("http leave validation failed", zap.String("path", c.FullPath()), zap.Error(err))
	response.Error(c, http.StatusBadRequest, apperror.CodeValidation, apperror.MapValidationError(err).Error(), err.Error())
}

// caller resolves the actor of the request into the engine's Caller,
// ensuring the actor has an employee record first.
func (h *Handler) caller(c *gin.Context) (Caller, error) {
	ctx := c.Request.Context()
	actor, ok := contextutil.GetActor(ctx)
	if !ok {
		return Caller{}, apperror.ErrUnauthorized
	}

	empl, err := h.identities.EnsureForIdentity(ctx, actor)
	if err != nil {
		return Caller{}, err
	}
	manageAll, err := h.access.Enforce(domain.EnforceRequest{
		Role:     actor.Role,
		Resource: "leave",
		Action:   "read_all",
	})
	if err != nil {
		return Caller{}, err
	}

	name := actor.Name
	if name == "" {
		name = empl.FullName
	}
	return Caller{
		UserID:     actor.UserID,
		EmployeeID: empl.ID,
		Name:       name,
		ManageAll:  manageAll,
	}, nil
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err)
		return
	}

	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.logger.Debug("http create leave", zap.String("actor_id", caller.UserID), zap.String("employee_id", caller.EmployeeID))

	resp, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	year, _ := strconv.Atoi(c.Query("year"))
	resp, err := h.service.GetAll(c.Request.Context(), caller, ListFilter{
		EmployeeID: strings.TrimSpace(c.Query("employee_id")),
		Status:     c.Query("status"),
		LeaveType:  c.Query("leave_type"),
		Year:       year,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	items, meta := response.Paginate(resp, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) History(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.History(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err)
		return
	}

	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, caller Caller, id string) (LeaveResponse, error)) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := fn(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err)
		return
	}
	h.decide(c, req)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decideWith(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decideWith(c, h.service.Reject)
}

// decideWith reads an optional comment body and passes it to fn.
func (h *Handler) decideWith(c *gin.Context, fn func(ctx context.Context, caller Caller, id, comment string) (LeaveResponse, error)) {
	var req CommentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeValidationError(c, err)
			return
		}
	}

	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := fn(c.Request.Context(), caller, c.Param("id"), req.Comment)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) decide(c *gin.Context, req DecisionRequest) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "leave deleted"}, nil)
}
