package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
	"github.com/RobertLogos32/bto-prova/internal/shared/utils"
)

const (
	AdminTokenHeader = "X-Admin-Token"
	OperatorIDHeader = "X-Operator-ID"
	operatorIDKey    = "operator_id"
)

// OperatorChecker reports whether a platform id belongs to the operator roster.
type OperatorChecker interface {
	IsOperator(platformID int64) bool
}

// AdminAuthMiddleware guards the admin API with a shared token plus the
// acting operator's platform id.
type AdminAuthMiddleware struct {
	token     string
	operators OperatorChecker
	logger    logger.Interface
}

func NewAdminAuthMiddleware(token string, operators OperatorChecker, logger logger.Interface) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		token:     token,
		operators: operators,
		logger:    logger,
	}
}

// RequireOperator rejects requests without a valid token (401) or whose
// X-Operator-ID is not an operator (403). An empty configured token
// rejects everything.
func (m *AdminAuthMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AdminTokenHeader)
		if m.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			m.logger.Warnw("admin request with invalid token", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid admin token")
			c.Abort()
			return
		}

		operatorID, err := strconv.ParseInt(c.GetHeader(OperatorIDHeader), 10, 64)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "X-Operator-ID must be a numeric platform id")
			c.Abort()
			return
		}
		if !m.operators.IsOperator(operatorID) {
			m.logger.Warnw("admin request from non-operator", "operator_id", operatorID, "ip", c.ClientIP())
			utils.ErrorResponse(c, http.StatusForbidden, "not an operator")
			c.Abort()
			return
		}

		SetOperatorID(c, operatorID)
		c.Next()
	}
}

// SetOperatorID records the acting operator on the request context.
func SetOperatorID(c *gin.Context, operatorID int64) {
	c.Set(operatorIDKey, operatorID)
}

// GetOperatorID returns the operator id set by RequireOperator.
func GetOperatorID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(operatorIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
