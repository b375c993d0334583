package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respond(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError 内部错误只记录日志，不把细节返回给客户端
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   apperr.PublicMessage(err),
		"code":    apperr.KindOf(err),
	})
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(fmt.Sprintf("%s failed on the '%s' rule", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return apperr.Validation("invalid request body")
}
