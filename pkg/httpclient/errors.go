package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"
)

// DownstreamErrorResponse mirrors the httputil.ErrorResponse structure. Some
// collaborators answer with {"error":{"code","message"}}, others with
// {"message": "..."} or plain text; all three are accepted.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError keyed on the status code. The response body
// is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	code := ""
	message := strings.TrimSpace(string(bodyBytes))

	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil {
		switch {
		case downstream.Error != nil:
			code = downstream.Error.Code
			message = downstream.Error.Message
		case downstream.Message != "":
			message = downstream.Message
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return mapDownstreamError(resp.StatusCode, code, message, serviceName)
}

// mapDownstreamError keeps the downstream status semantics. 4xx statuses
// with no matching kind keep their status and the downstream code.
func mapDownstreamError(status int, code, message, serviceName string) error {
	msg := serviceName + ": " + message

	kind, ok := apperrors.KindForStatus(status)
	switch {
	case !ok:
		if code == "" {
			code = "DOWNSTREAM_ERROR"
		}
		return &apperrors.AppError{Code: code, Message: msg, Status: status}
	case kind == apperrors.KindBadGateway:
		return apperrors.BadGateway(msg, fmt.Errorf("%s returned status %d", serviceName, status))
	default:
		return apperrors.New(kind, msg)
	}
}
