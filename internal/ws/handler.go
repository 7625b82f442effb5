package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"chat-relay/internal/auth"
	"chat-relay/internal/observability"
	"chat-relay/internal/relay"
)

const connEventsRoutingKey = "relay_events.connections"

// Handler owns the websocket endpoint: handshake, authentication, lifecycle
// attachment and client-action dispatch.
type Handler struct {
	relay      *relay.Relay
	verifier   *auth.Verifier
	sendBuffer int
	logger     *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(r *relay.Relay, verifier *auth.Verifier, sendBuffer int, logger *zap.SugaredLogger) *Handler {
	return &Handler{relay: r, verifier: verifier, sendBuffer: sendBuffer, logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, resolves the caller's username from the
// bearer token and attaches the connection to the relay. A missing or invalid
// token does not abort the handshake; the connection stays anonymous and is
// tracked by transport only.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	username := h.resolveUsername(c)

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	wc := newConn(sock, h.sendBuffer, h.logger)
	go wc.writePump()

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	headers := observability.BuildHeaders(requestID, traceID)
	ip := observability.IPFromRequest(c.Request)
	connectedAt := time.Now()

	h.relay.Connected(username, wc)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, connEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: observability.ConnEventPayload{
			Event:    "ws_connect",
			ConnID:   wc.ID(),
			Username: username,
			IP:       ip,
		},
	}, headers)

	// The request context dies when this handler returns; the read loop runs
	// for the life of the connection on a detached context that keeps the
	// request's trace values.
	connCtx := context.WithoutCancel(ctx)
	go h.readLoop(connCtx, relay.Caller{Username: username, Conn: wc}, wc, connectedAt, ip, headers)
}

func (h *Handler) resolveUsername(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}

	parts := strings.SplitN(token, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	username, err := h.verifier.Verify(parts[1])
	if err != nil {
		h.logger.Debugw("ws token rejected", "error", err)
		return ""
	}
	return username
}

// readLoop consumes client frames until the transport closes, then drives the
// Disconnected transition.
func (h *Handler) readLoop(ctx context.Context, caller relay.Caller, wc *conn, connectedAt time.Time, ip string, headers map[string]string) {
	var closeReason string
	var closeErr error
	defer func() {
		h.relay.Disconnected(caller.Username, closeErr)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, connEventsRoutingKey, observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload: observability.ConnEventPayload{
				Event:      "ws_disconnect",
				ConnID:     wc.ID(),
				Username:   caller.Username,
				DurationMS: time.Since(connectedAt).Milliseconds(),
				Reason:     closeReason,
				IP:         ip,
			},
		}, headers)
		wc.Close()
	}()

	for {
		_, data, err := wc.sock.ReadMessage()
		if err != nil {
			closeErr = err
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.dispatch(ctx, caller, data)
	}
}
