package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/teemow/inboxcook/internal/logging"
)

// codeParam is the query parameter carrying the authorization code.
const codeParam = "code"

// HandleAPIGateway serves an API Gateway HTTP API (payload v2) event.
func (h *Handler) HandleAPIGateway(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := h.Handle(ctx, Request{
		Code:      event.QueryStringParameters[codeParam],
		Cookies:   event.Cookies,
		RequestID: event.RequestContext.RequestID,
		Method:    event.RequestContext.HTTP.Method,
		Path:      event.RawPath,
	})
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cookies := make([]string, 0, len(r.Cookies()))
	for _, c := range r.Cookies() {
		cookies = append(cookies, c.Name+"="+c.Value)
	}

	resp, err := h.Handle(r.Context(), Request{
		Code:      r.URL.Query().Get(codeParam),
		Cookies:   cookies,
		RequestID: r.Header.Get("X-Request-Id"),
		Method:    r.Method,
		Path:      r.URL.Path,
	})
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if encErr := json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"}); encErr != nil {
			h.logger.Error("failed to write error response", logging.Err(encErr))
		}
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		if _, err := w.Write([]byte(resp.Body)); err != nil {
			h.logger.Error("failed to write response", logging.Err(err))
		}
	}
}
