package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-relay/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.chat_relay", "chat-relay", "test", zap.NewNop().Sugar())

	publisher.On("PublishJSON", mock.Anything, "audit.chat_relay", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		return ok && envelope.EventType == "audit_log" && envelope.Username == "alice" && envelope.Payload.Level == "WARN"
	}), mock.Anything).Return(nil).Once()

	emitter.Emit(context.Background(), "WARN", "history access denied", "req-1", "alice")
	publisher.AssertExpectations(t)
}

func TestEmitNilSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "", "")
	})

	withoutPublisher := NewAuditEmitter(nil, "audit.chat_relay", "chat-relay", "test", zap.NewNop().Sugar())
	require.NotPanics(t, func() {
		withoutPublisher.Emit(context.Background(), "INFO", "noop", "", "")
	})
}
