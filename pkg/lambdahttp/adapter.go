// Package lambdahttp serves API Gateway HTTP API (v2) events through a
// regular http.Handler, so the same router runs on a server or in Lambda.
package lambdahttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

const internalErrorBody = `{"code":"INTERNAL_ERROR","error":"internal server error"}`

// Handler returns a Lambda handler function backed by h. Events the
// proxy cannot translate get a JSON 500 instead of a Lambda error, so
// callers always see the same response shape.
func Handler(h http.Handler) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter := httpadapter.NewV2(gatewayRequestID(h))
	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, event)
		if err != nil {
			slog.Error("failed to proxy lambda event",
				"requestId", event.RequestContext.RequestID,
				"path", event.RawPath,
				"error", err,
			)
			return events.APIGatewayV2HTTPResponse{
				StatusCode: http.StatusInternalServerError,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       internalErrorBody,
			}, nil
		}
		return resp, nil
	}
}

// gatewayRequestID uses the API Gateway request id as X-Request-ID when
// the caller did not send one.
func gatewayRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			if gw, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok && gw.RequestID != "" {
				r.Header.Set("X-Request-ID", gw.RequestID)
			}
		}
		next.ServeHTTP(w, r)
	})
}
