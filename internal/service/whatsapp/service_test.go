package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/commands"
	"github.com/mamadbah2/stockledger/internal/service/planning"
	"github.com/mamadbah2/stockledger/pkg/clients/anthropic"
	client "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
)

type clientMock struct{ mock.Mock }

func (m *clientMock) SendTextMessage(ctx context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	args := m.Called(ctx, req)
	return &client.SendTextMessageResponse{}, args.Error(0)
}

type aiMock struct{ mock.Mock }

func (m *aiMock) TranslateToCommand(ctx context.Context, history []anthropic.Message, input string) (string, error) {
	args := m.Called(ctx, history, input)
	return args.String(0), args.Error(1)
}

type dispatcherMock struct{ mock.Mock }

func (m *dispatcherMock) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	args := m.Called(ctx, cmd.Type, cmd.Args, sender)
	return args.String(0), args.Error(1)
}

var waConfig = config.WhatsAppConfig{VerifyToken: "secret", DigestRecipients: []string{"111", "222"}}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(waConfig, nil, nil, nil, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret", "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "abc")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("unsubscribe", "secret", "abc")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("", "", "")
	assert.Error(t, err)
}

func TestAnswerSlashCommandSkipsAI(t *testing.T) {
	ai := &aiMock{}
	dispatcher := &dispatcherMock{}
	dispatcher.On("HandleCommand", mock.Anything, models.CommandATP, []string{"X", "5"}, "api").Return("5 x X can be promised on 2025-03-15.", nil)

	svc := NewMetaWhatsAppService(waConfig, nil, ai, dispatcher, nil)
	reply, err := svc.Answer(context.Background(), "api", "  /atp X 5 ")
	require.NoError(t, err)
	assert.Equal(t, "/atp X 5", reply.Command)
	assert.Equal(t, "5 x X can be promised on 2025-03-15.", reply.Reply)
	ai.AssertNotCalled(t, "TranslateToCommand", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerTranslatesWithHistory(t *testing.T) {
	ai := &aiMock{}
	ai.On("TranslateToCommand", mock.Anything, []anthropic.Message(nil), "when can I ship 5 X?").Return("/atp X 5", nil).Once()
	ai.On("TranslateToCommand", mock.Anything, []anthropic.Message{
		{Role: "user", Content: "when can I ship 5 X?"},
		{Role: "assistant", Content: "/atp X 5"},
	}, "and 10?").Return("/atp X 10", nil).Once()

	dispatcher := &dispatcherMock{}
	dispatcher.On("HandleCommand", mock.Anything, models.CommandATP, mock.Anything, "u1").Return("ok", nil)

	svc := NewMetaWhatsAppService(waConfig, nil, ai, dispatcher, nil)

	_, err := svc.Answer(context.Background(), "u1", "when can I ship 5 X?")
	require.NoError(t, err)
	reply, err := svc.Answer(context.Background(), "u1", "and 10?")
	require.NoError(t, err)
	assert.Equal(t, "/atp X 10", reply.Command)
	ai.AssertExpectations(t)
	assert.Len(t, svc.sessions.History("u1"), 4)
}

func TestAnswerWithoutAI(t *testing.T) {
	svc := NewMetaWhatsAppService(waConfig, nil, nil, &dispatcherMock{}, nil)
	reply, err := svc.Answer(context.Background(), "u1", "how many SSDs?")
	require.NoError(t, err)
	assert.Empty(t, reply.Command)
	assert.Contains(t, reply.Reply, "/atp")
}

func TestAnswerMapsCommandErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{commands.ErrInvalidArguments, "Could not read that command."},
		{commands.ErrUnsupportedCommand, "Unknown command."},
		{planning.ErrNoRun, "No ledger has been built yet."},
	}
	for _, tt := range tests {
		dispatcher := &dispatcherMock{}
		dispatcher.On("HandleCommand", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", tt.err)
		svc := NewMetaWhatsAppService(waConfig, nil, nil, dispatcher, nil)

		reply, err := svc.Answer(context.Background(), "u1", "/atp")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(reply.Reply, tt.want), reply.Reply)
	}

	dispatcher := &dispatcherMock{}
	dispatcher.On("HandleCommand", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("db down"))
	svc := NewMetaWhatsAppService(waConfig, nil, nil, dispatcher, nil)
	_, err := svc.Answer(context.Background(), "u1", "/rebuild")
	assert.EqualError(t, err, "db down")
}

func TestHandleWebhookRepliesToSender(t *testing.T) {
	wa := &clientMock{}
	wa.On("SendTextMessage", mock.Anything, client.SendTextMessageRequest{To: "15550001", Body: "all good"}).Return(nil)
	dispatcher := &dispatcherMock{}
	dispatcher.On("HandleCommand", mock.Anything, models.CommandShortages, []string(nil), "15550001").Return("all good", nil)

	svc := NewMetaWhatsAppService(waConfig, wa, nil, dispatcher, nil)
	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{
		Messages: []models.InboundMessage{
			{From: "15550001", ID: "m1", Type: "text", Text: &models.TextContent{Body: "/shortages"}},
			{From: "15550001", ID: "m2", Type: "image"},
		},
	}}}}}}

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	wa.AssertNumberOfCalls(t, "SendTextMessage", 1)
}

func TestHandleWebhookSendFailure(t *testing.T) {
	wa := &clientMock{}
	wa.On("SendTextMessage", mock.Anything, mock.Anything).Return(errors.New("rate limited"))
	dispatcher := &dispatcherMock{}
	dispatcher.On("HandleCommand", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("x", nil)

	svc := NewMetaWhatsAppService(waConfig, wa, nil, dispatcher, nil)
	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{
		Messages: []models.InboundMessage{{From: "1", ID: "m1", Interactive: &models.InteractiveContent{ButtonReply: &models.ButtonReply{ID: "/help"}}}},
	}}}}}}

	assert.EqualError(t, svc.HandleWebhook(context.Background(), payload), "rate limited")
}

func TestSendDigest(t *testing.T) {
	wa := &clientMock{}
	wa.On("SendTextMessage", mock.Anything, mock.MatchedBy(func(req client.SendTextMessageRequest) bool { return req.To == "111" })).Return(nil)
	wa.On("SendTextMessage", mock.Anything, mock.MatchedBy(func(req client.SendTextMessageRequest) bool { return req.To == "222" })).Return(errors.New("blocked"))

	svc := NewMetaWhatsAppService(waConfig, wa, nil, nil, nil)
	err := svc.SendDigest(context.Background(), "digest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send digest to 222")
	wa.AssertNumberOfCalls(t, "SendTextMessage", 2)

	disabled := NewMetaWhatsAppService(waConfig, nil, nil, nil, nil)
	assert.ErrorIs(t, disabled.SendDigest(context.Background(), "digest"), ErrChannelDisabled)
}

func TestSessionManagerCapsHistory(t *testing.T) {
	sm := NewSessionManager(2)
	sm.Record("u", "q1", "/a")
	sm.Record("u", "q2", "/b")
	sm.Record("u", "q3", "/c")

	history := sm.History("u")
	require.Len(t, history, 4)
	assert.Equal(t, "q2", history[0].Content)
	assert.Equal(t, "/c", history[3].Content)

	sm.ClearSession("u")
	assert.Empty(t, sm.History("u"))
}
