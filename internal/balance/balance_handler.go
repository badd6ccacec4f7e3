package balance

import (
	"net/http"
	"strconv"

	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/shared/apperror"
	"go-leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func parseYear(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, balanceerrors.ErrInvalidYear
	}
	return year, nil
}

func (h *Handler) Get(c *gin.Context) {
	year, err := parseYear(c.Query("year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.Get(c.Request.Context(), c.Param("employee_id"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) History(c *gin.Context) {
	resp, err := h.service.History(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reset(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil || year == 0 {
		h.writeServiceError(c, balanceerrors.ErrInvalidYear)
		return
	}

	var req ResetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reset balance validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, apperror.CodeValidation, apperror.MapValidationError(err).Error(), err.Error())
		return
	}

	resp, err := h.service.Reset(c.Request.Context(), c.Param("employee_id"), year, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
