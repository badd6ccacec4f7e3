package balance

import (
	"go-leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	jwtSecret string,
	resolveEmployee middleware.EmployeeResolver,
	logger *zap.Logger,
) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware(jwtSecret))
	balances.Use(middleware.ContextLogger(logger))
	{
		balances.GET("/:employee_id",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "balance", "read"),
			middleware.OwnerOrPermission(rbacService, "balance", "read_all", "employee_id", resolveEmployee),
			handler.Get,
		)
		balances.GET("/:employee_id/history",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "balance", "read"),
			middleware.OwnerOrPermission(rbacService, "balance", "read_all", "employee_id", resolveEmployee),
			handler.History,
		)
		balances.PUT("/:employee_id/:year/reset",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "balance", "reset"),
			handler.Reset,
		)
	}
}
