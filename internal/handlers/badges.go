package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gdg-garage/badge-api/internal/badges"
	"github.com/gdg-garage/badge-api/internal/models"
)

// BadgeResolver is implemented by *badges.Service.
type BadgeResolver interface {
	ResolveBadges(ctx context.Context, userID, sessionID string) (*models.BadgeLookupResult, error)
}

// BadgeHandler serves the badge lookup operation.
type BadgeHandler struct {
	service BadgeResolver
}

func NewBadgeHandler(service BadgeResolver) *BadgeHandler {
	return &BadgeHandler{service: service}
}

type GetBadgesRequest struct {
	UserID    string `path:"userId" doc:"User identifier as stored in the assignments table"`
	SessionID string `query:"sessionId" doc:"Only return assignments issued in this session"`
}

type GetBadgesResponse struct {
	Body models.BadgeLookupResult
}

func (h *BadgeHandler) HandleGetBadges(ctx context.Context, input *GetBadgesRequest) (*GetBadgesResponse, error) {
	result, err := h.service.ResolveBadges(ctx, decodeSegment(ctx, input.UserID), input.SessionID)
	if err != nil {
		return nil, newAPIError(badges.ErrorResponse(err))
	}

	return &GetBadgesResponse{Body: *result}, nil
}

// HandleMissingUser answers /api/badges without a user segment.
func (h *BadgeHandler) HandleMissingUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "userId required"})
}

// decodeSegment unescapes a path parameter that the router left encoded,
// which happens when the request path contains an escaped slash. Parameters
// routed on the decoded path are returned unchanged.
func decodeSegment(ctx context.Context, s string) string {
	if !routedOnRawPath(ctx) {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
