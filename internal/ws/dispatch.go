package ws

import (
	"context"
	"encoding/json"

	"chat-relay/internal/relay"
	"chat-relay/internal/relayerr"
)

// clientFrame is the inbound wire format.
type clientFrame struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Reply events for request/response actions. These are transport-level and
// additive to the relay's push events.
const (
	eventChatMessages = "ChatMessages"
	eventUserGroups   = "UserGroups"
)

type privateMessageRequest struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

type groupMessageRequest struct {
	GroupName  string   `json:"group_name"`
	Recipients []string `json:"recipients"`
	Content    string   `json:"content"`
}

type createGroupRequest struct {
	GroupName    string   `json:"group_name"`
	Participants []string `json:"participants"`
}

type chatHistoryRequest struct {
	Name string `json:"name"`
}

type groupNotificationRequest struct {
	GroupName string `json:"group_name"`
}

// dispatch decodes one client frame and runs the matching relay operation.
// Failures never terminate the connection: they surface to the caller as a
// system notice and are logged.
func (h *Handler) dispatch(ctx context.Context, caller relay.Caller, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.systemNotice(caller, "Malformed request")
		return
	}

	var err error
	switch frame.Action {
	case "SendPrivateMessage":
		var req privateMessageRequest
		if h.decodePayload(caller, frame.Action, frame.Payload, &req) {
			err = h.relay.SendPrivateMessage(ctx, caller, req.Receiver, req.Content)
		}

	case "SendMessageToGroup":
		var req groupMessageRequest
		if h.decodePayload(caller, frame.Action, frame.Payload, &req) {
			err = h.relay.SendMessageToGroup(ctx, caller, req.GroupName, req.Recipients, req.Content)
		}

	case "CreateGroup":
		var req createGroupRequest
		if h.decodePayload(caller, frame.Action, frame.Payload, &req) {
			err = h.relay.CreateGroup(ctx, caller, req.GroupName, req.Participants)
		}

	case "GetMessagesForChat":
		var req chatHistoryRequest
		if h.decodePayload(caller, frame.Action, frame.Payload, &req) {
			h.replyChatHistory(ctx, caller, req.Name)
		}

	case "GetOnlineUsers":
		h.relay.OnlineUsers(caller)

	case "GetUserGroups":
		h.replyUserGroups(ctx, caller)

	case "SendNewGroupMessageNotification":
		var req groupNotificationRequest
		if h.decodePayload(caller, frame.Action, frame.Payload, &req) {
			h.relay.NotifyGroupMessage(req.GroupName)
		}

	default:
		h.systemNotice(caller, "Unknown action")
		return
	}

	if err != nil {
		h.logger.Warnw("action failed", "action", frame.Action, "username", caller.Username, "error", err)
	}
}

// decodePayload unmarshals an action payload. A payload that does not fit the
// action's request shape degrades the same way a broken frame does: the caller
// gets a system notice and the connection stays open.
func (h *Handler) decodePayload(caller relay.Caller, action string, payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		h.logger.Debugw("payload rejected", "action", action, "username", caller.Username, "error", err)
		h.systemNotice(caller, "Malformed request")
		return false
	}
	return true
}

func (h *Handler) replyChatHistory(ctx context.Context, caller relay.Caller, name string) {
	msgs, err := h.relay.MessagesForChat(ctx, caller, name)
	if err != nil {
		h.handleOpError(caller, err)
		return
	}
	if err := caller.Conn.Send(eventChatMessages, msgs); err != nil {
		h.logger.Debugw("history reply dropped", "conn_id", caller.Conn.ID(), "error", err)
	}
}

func (h *Handler) replyUserGroups(ctx context.Context, caller relay.Caller) {
	groups, err := h.relay.UserGroups(ctx, caller)
	if err != nil {
		h.handleOpError(caller, err)
		return
	}
	if err := caller.Conn.Send(eventUserGroups, groups); err != nil {
		h.logger.Debugw("groups reply dropped", "conn_id", caller.Conn.ID(), "error", err)
	}
}

// handleOpError degrades gracefully: the caller gets a system notice and the
// connection stays open.
func (h *Handler) handleOpError(caller relay.Caller, err error) {
	switch relayerr.KindOf(err) {
	case relayerr.Unauthorized, relayerr.InvalidArgument, relayerr.NotFound:
		h.systemNotice(caller, relayerr.MessageOf(err))
	default:
		h.logger.Errorw("operation failed", "username", caller.Username, "error", err)
		h.systemNotice(caller, "Internal error")
	}
}

func (h *Handler) systemNotice(caller relay.Caller, text string) {
	payload := relay.ChatPayload{Sender: relay.SystemSender, Content: text}
	if err := caller.Conn.Send(relay.EventReceiveMessage, payload); err != nil {
		h.logger.Debugw("system notice dropped", "conn_id", caller.Conn.ID(), "error", err)
	}
}
