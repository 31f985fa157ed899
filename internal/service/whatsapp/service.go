package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/commands"
	"github.com/mamadbah2/stockledger/internal/service/planning"
	"github.com/mamadbah2/stockledger/pkg/clients/anthropic"
	client "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
)

// ErrChannelDisabled is returned when a message must be sent but no WhatsApp
// client is configured.
var ErrChannelDisabled = errors.New("whatsapp channel disabled")

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer and scheduler can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	Answer(ctx context.Context, sender, text string) (models.QueryReply, error)
	SendDigest(ctx context.Context, body string) error
}

// MetaWhatsAppService answers planner questions over WhatsApp and the query API.
// The client and the AI translator are both optional.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	ai         anthropic.Client
	dispatcher commands.Dispatcher
	sessions   *SessionManager
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, ai anthropic.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		ai:         ai,
		dispatcher: dispatcher,
		sessions:   NewSessionManager(defaultMaxTurns),
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := extractMessageText(msg)
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	reply, err := s.Answer(ctx, msg.From, text)
	if err != nil {
		reply.Reply = "Sorry, the planner could not answer right now."
		s.logger.Error("query failed", zap.String("from", msg.From), zap.Error(err))
	}

	return s.send(ctx, msg.From, reply.Reply)
}

// Answer turns a question into a command, runs it and returns the reply text.
// Command errors caused by the question itself become replies.
func (s *MetaWhatsAppService) Answer(ctx context.Context, sender, text string) (models.QueryReply, error) {
	text = strings.TrimSpace(text)
	line := text

	if !strings.HasPrefix(text, "/") {
		if s.ai == nil {
			return models.QueryReply{Reply: "Free-text questions are not enabled. " + commands.HelpText}, nil
		}
		translated, err := s.ai.TranslateToCommand(ctx, s.sessions.History(sender), text)
		if err != nil {
			return models.QueryReply{}, fmt.Errorf("translate question: %w", err)
		}
		line = translated
		s.sessions.Record(sender, text, line)
	}

	cmd := models.ParseCommand(line)
	s.logger.Info("parsed inbound command",
		zap.String("from", sender),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	switch {
	case err == nil:
	case errors.Is(err, commands.ErrInvalidArguments):
		reply = "Could not read that command. " + commands.HelpText
	case errors.Is(err, commands.ErrUnsupportedCommand):
		reply = "Unknown command. " + commands.HelpText
	case errors.Is(err, planning.ErrNoRun):
		reply = "No ledger has been built yet. Send /rebuild first."
	default:
		return models.QueryReply{Command: line}, err
	}

	return models.QueryReply{Command: line, Reply: reply}, nil
}

// SendDigest pushes body to every configured digest recipient.
func (s *MetaWhatsAppService) SendDigest(ctx context.Context, body string) error {
	if len(s.cfg.DigestRecipients) == 0 {
		s.logger.Debug("no digest recipients configured")
		return nil
	}

	var errs []error
	for _, to := range s.cfg.DigestRecipients {
		if err := s.send(ctx, to, body); err != nil {
			errs = append(errs, fmt.Errorf("send digest to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string) error {
	if s.client == nil {
		return ErrChannelDisabled
	}

	for _, chunk := range client.SplitBody(body, client.MaxBodyLength) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
		_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
			To:   to,
			Body: chunk,
		})
		cancel()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return msg.Text.Body
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}
