package util

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 上传练习允许的文件类型
const (
	MimePDF         = "application/pdf"
	MimeDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDoc         = "application/msword"
	MimeText        = "text/plain"
	MimeOctetStream = "application/octet-stream"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// GenerateRandomString 生成十六进制随机串，用于拼接上传文件名
func GenerateRandomString(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n)
	}
	return hex.EncodeToString(b)[:n]
}
