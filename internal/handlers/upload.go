package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// formUpload 读取 multipart 中的图片字段，字段不存在时返回 nil。
// 调用方负责执行返回的 close。
func formUpload(c *gin.Context, field string, maxSize int64) (*services.Upload, func(), error) {
	noop := func() {}
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, apperr.Validation(fmt.Sprintf("invalid %s upload", field))
	}
	if maxSize > 0 && header.Size > maxSize {
		return nil, noop, apperr.Validation(fmt.Sprintf("%s exceeds the %d byte limit", field, maxSize))
	}

	f, err := header.Open()
	if err != nil {
		return nil, noop, apperr.Internal("failed to read upload", err)
	}
	return &services.Upload{Filename: header.Filename, Reader: f}, func() { _ = f.Close() }, nil
}
