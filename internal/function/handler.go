// Package function adapts the badge lookup to a one-shot serverless
// invocation (AWS Lambda, Netlify Functions) over API Gateway proxy events.
package function

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gdg-garage/badge-api/internal/badges"
	"github.com/gdg-garage/badge-api/internal/models"
	"go.uber.org/zap"
)

type BadgeResolver interface {
	ResolveBadges(ctx context.Context, userID, sessionID string) (*models.BadgeLookupResult, error)
}

// Handler answers API Gateway proxy events with the same bodies as the HTTP
// server.
type Handler struct {
	service     BadgeResolver
	hasAirtable bool
	logger      *zap.Logger
}

func NewHandler(service BadgeResolver, hasAirtable bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, hasAirtable: hasAirtable, logger: logger}
}

// Handle serves GET .../badges/{userId}?sessionId= and GET .../health.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	segments := splitPath(req.Path)
	if len(segments) > 0 && segments[len(segments)-1] == "health" && !slices.Contains(segments, "badges") {
		return jsonResponse(http.StatusOK, models.HealthResponse{OK: true, HasAirtable: h.hasAirtable})
	}

	userID := userIDFromSegments(segments)
	sessionID := req.QueryStringParameters["sessionId"]

	result, err := h.service.ResolveBadges(ctx, userID, sessionID)
	if err != nil {
		status, body := badges.ErrorResponse(err)
		h.logger.Debug("badge lookup rejected", zap.Int("status", status), zap.Error(err))
		return jsonResponse(status, body)
	}
	return jsonResponse(http.StatusOK, result)
}

// userIDFromSegments returns the decoded segment following "badges", or the
// last segment when the path has no "badges" segment.
func userIDFromSegments(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	for i, seg := range segments {
		if seg == "badges" {
			if i+1 < len(segments) {
				return unescape(segments[i+1])
			}
			return ""
		}
	}
	return unescape(segments[len(segments)-1])
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func jsonResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}, nil
}
