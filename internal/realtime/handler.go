package realtime

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studiobooking/internal/domain/booking"
	"studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	policy   *booking.Policy
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler accepts browser upgrades only from allowedOrigins or the
// serving host. Requests without an Origin header are not from browsers.
func NewHandler(hub *Hub, jwtService *jwt.Service, policy *booking.Policy, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		hub:    hub,
		jwt:    jwtService,
		policy: policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWS streams booking events the caller is allowed to list.
//
// GET /ws/bookings?token=JWT
//
// Browsers cannot set headers on websocket requests, so the token may be
// passed as a query parameter.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	principal := booking.Principal{UserID: claims.UserID, Role: booking.Role(claims.Role)}
	scope, err := h.policy.Scope(c.Request.Context(), principal)
	switch {
	case errors.Is(err, booking.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	case errors.Is(err, booking.ErrStaffNotAssigned):
		response.Error(c, http.StatusForbidden, "STAFF_NOT_ASSIGNED", err.Error())
		return
	case err != nil:
		h.log.Error("resolve websocket scope", zap.Int64("user_id", principal.UserID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn, principal.UserID, scope)
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/bookings", h.ServeWS)
}
