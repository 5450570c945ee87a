package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/port"
)

// messageSender delivers one message body to a receiver of the given id type
type messageSender interface {
	Send(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error)
}

// imSender sends through the SDK's IM message service. The SDK keeps the built
// body in an unexported field, so the request is assembled only here.
type imSender struct {
	messages interface {
		Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
	}
}

func (s imSender) Send(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(body).
		Build()
	return s.messages.Create(ctx, req)
}

// Messenger implements port.Messenger with Lark IM text messages
type Messenger struct {
	messages messageSender
	logger   *zap.Logger
}

// NewMessenger creates a messenger backed by the app's IM service
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	return &Messenger{
		messages: imSender{messages: NewSDKClient(cfg).Im.Message},
		logger:   logger,
	}
}

// SendText sends a plain-text message and returns the Lark message ID
func (m *Messenger) SendText(ctx context.Context, to port.Recipient, text string) (string, error) {
	if to.ID == "" || to.IDType == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	if text == "" {
		return "", fmt.Errorf("content cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message content: %w", err)
	}

	body := larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(to.ID).
		MsgType(larkim.MsgTypeText).
		Content(string(content)).
		Build()

	resp, err := m.messages.Send(ctx, to.IDType, body)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", to.ID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", to.ID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id_type", to.IDType),
		zap.String("receive_id", to.ID))

	return messageID, nil
}

// Verify interface compliance
var _ port.Messenger = (*Messenger)(nil)
