package resource

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"freightdesk/internal/model"
	"freightdesk/internal/transport"
	"freightdesk/pkg/apierror"
)

const (
	msgUnreachable = "Unable to reach the server. Please check your connection and try again."
	msgCanceled    = "request canceled"
	msgTimedOut    = "request timed out"
	msgUnexpected  = "Unexpected response from server"
	msgFailed      = "Request failed"
	msgTooLarge    = "Response too large to download"
)

// Caller is the transport seen by resource functions.
type Caller interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// call performs req and maps the outcome onto an envelope. It never returns
// an error: transport failures, error statuses and backend-reported failures
// all become Success=false with a non-empty message.
func call[T any](ctx context.Context, c Caller, req transport.Request) model.Envelope[T] {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return model.Failure[T](transportMessage(err))
	}

	var env model.Envelope[T]
	if len(strings.TrimSpace(string(resp.Body))) > 0 {
		if decodeErr := json.Unmarshal(resp.Body, &env); decodeErr != nil {
			slog.Debug("undecodable backend body", "path", req.Path, "status", resp.Status, "error", decodeErr)
			env = model.Envelope[T]{}
			if resp.OK() {
				return model.Failure[T](firstNonEmpty(bodyMessage(resp.Body), msgUnexpected))
			}
		}
	} else if resp.OK() {
		// 204 and friends carry no envelope; the status is the outcome
		return model.Envelope[T]{Success: true}
	}

	if !resp.OK() {
		var zero T
		env.Success = false
		env.Data = zero
		env.Meta = nil
		if strings.TrimSpace(env.Message) == "" {
			env.Message = statusMessage(resp)
		}
		return env
	}

	if !env.Success && strings.TrimSpace(env.Message) == "" {
		env.Message = firstNonEmpty(bodyMessage(resp.Body), msgFailed)
	}

	return env
}

// blob fetches a binary body. Error responses are still JSON envelopes.
func blob(ctx context.Context, c Caller, req transport.Request, fallbackName string) model.Envelope[model.Blob] {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return model.Failure[model.Blob](transportMessage(err))
	}

	if !resp.OK() {
		return model.Failure[model.Blob](statusMessage(resp))
	}

	name := resp.Filename()
	if name == "" {
		name = fallbackName
	}

	return model.Success(model.Blob{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Content:     resp.Body,
	}, "")
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimedOut
	case errors.Is(err, transport.ErrBodyTooLarge):
		return msgTooLarge
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return msgTimedOut
	}

	slog.Debug("backend unreachable", "error", err)
	return msgUnreachable
}

func statusMessage(resp *transport.Response) string {
	if msg := bodyMessage(resp.Body); msg != "" {
		return msg
	}
	return apierror.FromStatus(resp.Status).Message
}

// bodyMessage checks the shapes backends use for error text.
func bodyMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range []string{"message", "error.message", "error", "msg"} {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && strings.TrimSpace(res.Str) != "" {
			return strings.TrimSpace(res.Str)
		}
	}

	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
