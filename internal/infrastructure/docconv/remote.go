package docconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// RemoteConverter 调用外部文档转换服务
// 请求体为 DOCX 原始字节；响应: {"html": "..."}
type RemoteConverter struct {
	client *resty.Client
	url    string
}

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type convertResponse struct {
	HTML string `json:"html"`
}

type convertError struct {
	Error string `json:"error"`
}

// NewRemoteConverter 创建远程转换器
func NewRemoteConverter(url string, timeout time.Duration) *RemoteConverter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return &RemoteConverter{client: client, url: url}
}

// ConvertToHTML 实现 importer.DocxConverter
func (c *RemoteConverter) ConvertToHTML(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	ctx, span := tracer.Start(ctx, "docconv.RemoteConverter.ConvertToHTML")
	defer span.End()

	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("read docx payload: %w", err)
	}

	var result convertResponse
	var failure convertError
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", docxMIME).
		SetBody(data).
		SetResult(&result).
		SetError(&failure).
		Post(c.url)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", importer.ErrConverterUnavailable, err)
	}

	switch {
	case resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %d", importer.ErrConverterUnavailable, resp.StatusCode())
	case resp.IsError():
		msg := failure.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return "", fmt.Errorf("%w: %s", ErrNotDocx, msg)
	}

	if result.HTML == "" && strings.HasPrefix(resp.Header().Get("Content-Type"), "text/html") {
		return string(resp.Body()), nil
	}
	return result.HTML, nil
}

// IsUnavailable 转换服务不可用（而非文档本身损坏）
func IsUnavailable(err error) bool {
	return errors.Is(err, importer.ErrConverterUnavailable)
}

// restyLogger 将 resty 内部日志转入 slog
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	logger.Default().Error(fmt.Sprintf(format, v...), "component", "docconv")
}

func (restyLogger) Warnf(format string, v ...any) {
	logger.Default().Warn(fmt.Sprintf(format, v...), "component", "docconv")
}

func (restyLogger) Debugf(format string, v ...any) {
	logger.Default().Debug(fmt.Sprintf(format, v...), "component", "docconv")
}
