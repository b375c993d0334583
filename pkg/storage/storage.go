// Package storage 图片上传存储
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType 文件类型不允许上传
var ErrUnsupportedType = errors.New("storage: only jpg, jpeg and png images are allowed")

// ErrUnknownURL URL 不是由当前存储生成的
var ErrUnknownURL = errors.New("storage: url does not belong to this store")

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ObjectStore 保存上传的文件并返回可访问的 URL
type ObjectStore interface {
	Put(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	// Delete 删除 Put 返回的 URL 对应的对象，对象不存在时不报错
	Delete(ctx context.Context, url string) error
}

// ObjectName 生成唯一对象名，保留原扩展名
func ObjectName(folder, filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext), contentType, nil
}
