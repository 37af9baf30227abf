package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	allocationUsecases "github.com/RobertLogos32/bto-prova/internal/application/allocation/usecases"
	lifecycleUsecases "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/application/testutil"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	testOperator int64 = 900
	testClient   int64 = 42
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *InlineKeyboardMarkup
}

type editedMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Keyboard  *InlineKeyboardMarkup
}

type answeredCallback struct {
	ID    string
	Text  string
	Alert bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	edited   []editedMessage
	answered []answeredCallback
	editErr  error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeMessenger) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	return f.SendMessage(ctx, chatID, text)
}

func (f *fakeMessenger) SendMessageWithInlineKeyboard(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeMessenger) EditMessageWithInlineKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, answeredCallback{ID: callbackQueryID, Text: text, Alert: showAlert})
	return nil
}

// to returns what was sent to chatID, oldest first.
func (f *fakeMessenger) to(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMessenger) last(t *testing.T, chatID int64) sentMessage {
	t.Helper()
	msgs := f.to(chatID)
	require.NotEmpty(t, msgs, "nothing sent to %d", chatID)
	return msgs[len(msgs)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent, f.edited, f.answered = nil, nil, nil
}

type handlerFixture struct {
	bot         *fakeMessenger
	clients     *testutil.MockClientRepository
	requests    *testutil.MockNumberRequestRepository
	allocations *testutil.MockAllocationRepository
	provider    *testutil.MockProvider
	handler     *BrokerUpdateHandler
	nextUpdate  int64
	nextMessage int64
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		bot:      &fakeMessenger{},
		clients:  testutil.NewMockClientRepository(),
		requests: testutil.NewMockNumberRequestRepository(),
		provider: &testutil.MockProvider{},
	}
	f.allocations = testutil.NewMockAllocationRepository(f.requests, f.clients, testutil.NewMockDeliveredCodeRepository())

	log := logger.NewNopLogger()
	catalog := numberrequest.DefaultCatalog()
	roster := lifecycleUsecases.NewOperatorRoster([]int64{testOperator})
	decideRequest := lifecycleUsecases.NewDecideRequestUseCase(f.requests, f.clients, roster, log)
	allocate := allocationUsecases.NewAllocateUseCase(f.requests, f.allocations, f.provider, catalog, 86, log)

	uc := UseCases{
		RegisterClient:     lifecycleUsecases.NewRegisterClientUseCase(f.clients, log),
		DecideClient:       lifecycleUsecases.NewDecideClientUseCase(f.clients, roster, log),
		SubmitRequest:      lifecycleUsecases.NewSubmitRequestUseCase(f.clients, f.requests, catalog, log),
		DecideRequest:      decideRequest,
		ListPending:        lifecycleUsecases.NewListPendingUseCase(f.clients, f.requests, roster, log),
		ClientOverview:     lifecycleUsecases.NewClientOverviewUseCase(f.clients, f.allocations, log),
		ApproveAndAllocate: allocationUsecases.NewApproveAndAllocateUseCase(decideRequest, allocate, log),
		RetryAllocation:    allocationUsecases.NewRetryAllocationUseCase(allocate, f.requests, f.clients, roster, log),
		ListUnallocated:    allocationUsecases.NewListUnallocatedUseCase(f.requests, f.clients, roster, log),
		GetBalance:         allocationUsecases.NewGetBalanceUseCase(f.provider, roster, log),
	}
	f.handler = NewBrokerUpdateHandler(f.bot, uc, roster, catalog, log)
	return f
}

func (f *handlerFixture) text(t *testing.T, from int64, text string) {
	t.Helper()
	f.nextUpdate++
	f.nextMessage++
	err := f.handler.HandleUpdate(context.Background(), &Update{
		UpdateID: f.nextUpdate,
		Message: &Message{
			MessageID: f.nextMessage,
			From:      &User{ID: from, FirstName: "Mario", Username: "mario", LanguageCode: "it"},
			Chat:      &Chat{ID: from, Type: "private"},
			Text:      text,
		},
	})
	require.NoError(t, err)
}

func (f *handlerFixture) press(t *testing.T, from int64, callbackID, data string) {
	t.Helper()
	f.nextUpdate++
	f.nextMessage++
	err := f.handler.HandleUpdate(context.Background(), &Update{
		UpdateID: f.nextUpdate,
		CallbackQuery: &CallbackQuery{
			ID:   callbackID,
			From: &User{ID: from, FirstName: "Op", LanguageCode: "en"},
			Message: &Message{
				MessageID: f.nextMessage,
				Chat:      &Chat{ID: from, Type: "private"},
			},
			Data: data,
		},
	})
	require.NoError(t, err)
}

func callbacks(kb *InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.CallbackData)
		}
	}
	return out
}

func TestHandler_StartRegistersAndAlertsOperators(t *testing.T) {
	f := newHandlerFixture()

	f.text(t, testClient, "/start")

	reply := f.bot.last(t, testClient)
	assert.Contains(t, reply.Text, "in attesa di approvazione")
	alert := f.bot.last(t, testOperator)
	assert.Contains(t, alert.Text, "Nuovo cliente")
	assert.Equal(t, []string{"approve:client:42", "deny:client:42"}, callbacks(alert.Keyboard))

	f.bot.reset()
	f.text(t, testClient, "/start")
	assert.Contains(t, f.bot.last(t, testClient).Text, "ancora in attesa")
	assert.Empty(t, f.bot.to(testOperator), "operators are alerted only on first contact")
}

func TestHandler_OperatorApprovesClient(t *testing.T) {
	f := newHandlerFixture()
	f.text(t, testClient, "/start")
	f.bot.reset()

	f.press(t, testOperator, "cb-1", "approve:client:42")

	require.Len(t, f.bot.answered, 1)
	assert.False(t, f.bot.answered[0].Alert)
	welcome := f.bot.last(t, testClient)
	assert.Contains(t, welcome.Text, "Registrazione approvata")
	assert.Contains(t, callbacks(welcome.Keyboard), "select:service:bet365")
	require.Len(t, f.bot.edited, 1)
	assert.Contains(t, f.bot.edited[0].Text, "Client approved")

	f.bot.reset()
	f.press(t, testOperator, "cb-2", "deny:client:42")
	require.Len(t, f.bot.answered, 1)
	assert.True(t, f.bot.answered[0].Alert)
	assert.Equal(t, "Already decided by another operator.", f.bot.answered[0].Text)
	assert.Empty(t, f.bot.to(testClient))
}

func TestHandler_NonOperatorCannotDecide(t *testing.T) {
	f := newHandlerFixture()
	f.clients.Add(7, "other", vo.DecisionPending)

	f.press(t, testClient, "cb-1", "approve:client:7")

	require.Len(t, f.bot.answered, 1)
	assert.True(t, f.bot.answered[0].Alert)
	assert.Equal(t, "⛔ Operators only.", f.bot.answered[0].Text)
	c, err := f.clients.GetByPlatformID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, vo.DecisionPending, c.Status())
}

func TestHandler_RedeliveredCallbackIsIgnored(t *testing.T) {
	f := newHandlerFixture()
	f.clients.Add(testClient, "mario", vo.DecisionPending)

	f.press(t, testOperator, "same-id", "approve:client:42")
	f.press(t, testOperator, "same-id", "approve:client:42")

	assert.Len(t, f.bot.answered, 1)
	assert.Len(t, f.bot.to(testClient), 1)
}

func TestHandler_RequestFlow(t *testing.T) {
	f := newHandlerFixture()
	f.clients.Add(testClient, "mario", vo.DecisionApproved)
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		return allocation.Lease{ActivationID: "A1", Number: "+391234567"}, nil
	}

	f.text(t, testClient, "/request")
	menu := f.bot.last(t, testClient)
	assert.Equal(t, []string{
		"select:service:bet365", "select:service:sisal",
		"select:service:SNAI", "select:service:Betflag",
	}, callbacks(menu.Keyboard))

	f.press(t, testClient, "cb-select", "select:service:bet365")
	require.Len(t, f.bot.edited, 1)
	assert.Contains(t, f.bot.edited[0].Text, "bet365")

	alert := f.bot.last(t, testOperator)
	assert.Contains(t, alert.Text, "Nuova richiesta")
	actions := callbacks(alert.Keyboard)
	require.Len(t, actions, 2)
	require.True(t, strings.HasPrefix(actions[0], "approve:request:"))
	sid := strings.TrimPrefix(actions[0], "approve:request:")

	f.bot.reset()
	f.press(t, testOperator, "cb-approve", actions[0])

	number := f.bot.last(t, testClient)
	assert.Contains(t, number.Text, "+391234567")
	assert.Contains(t, number.Text, "bet365")
	require.Len(t, f.bot.edited, 1)
	assert.Contains(t, f.bot.edited[0].Text, "A1")
	assert.Equal(t, 1, f.provider.RequestCalls())

	req, err := f.requests.GetBySID(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, vo.DecisionApproved, req.Status())
}

func TestHandler_RequestByArgument(t *testing.T) {
	f := newHandlerFixture()
	f.clients.Add(testClient, "mario", vo.DecisionApproved)

	f.text(t, testClient, "/request unknown")
	assert.Contains(t, f.bot.last(t, testClient).Text, "Servizio sconosciuto")

	f.text(t, testClient, "/request sisal")
	assert.Contains(t, f.bot.last(t, testClient).Text, "sisal")
	assert.Len(t, f.bot.to(testOperator), 1)
}

func TestHandler_RequestRequiresApproval(t *testing.T) {
	f := newHandlerFixture()

	f.text(t, testClient, "/request")
	assert.Contains(t, f.bot.last(t, testClient).Text, "Non sei ancora registrato")

	f.clients.Add(testClient, "mario", vo.DecisionPending)
	f.text(t, testClient, "/request")
	assert.Contains(t, f.bot.last(t, testClient).Text, "non è ancora approvato")

	f.press(t, testClient, "cb-1", "select:service:bet365")
	assert.Empty(t, f.bot.to(testOperator))
}

func TestHandler_ApproveWithoutNumberOffersRetry(t *testing.T) {
	f := newHandlerFixture()
	c := f.clients.Add(testClient, "mario", vo.DecisionApproved)
	req := f.requests.Add(c.ID(), "SNAI", vo.DecisionPending)
	calls := 0
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		calls++
		if calls == 1 {
			return allocation.Lease{}, errors.New("NO_NUMBERS")
		}
		return allocation.Lease{ActivationID: "A9", Number: "+39555"}, nil
	}

	f.press(t, testOperator, "cb-approve", "approve:request:"+req.SID())

	require.Len(t, f.bot.answered, 1)
	assert.True(t, f.bot.answered[0].Alert)
	require.Len(t, f.bot.edited, 1)
	assert.Contains(t, f.bot.edited[0].Text, "no number available")
	assert.Equal(t, []string{"retry:request:" + req.SID()}, callbacks(f.bot.edited[0].Keyboard))
	assert.Empty(t, f.bot.to(testClient))

	f.bot.reset()
	f.press(t, testOperator, "cb-retry", "retry:request:"+req.SID())

	assert.Contains(t, f.bot.last(t, testClient).Text, "+39555")
	require.Len(t, f.bot.edited, 1)
	assert.Contains(t, f.bot.edited[0].Text, "A9")
}

func TestHandler_DenyRequestTellsClient(t *testing.T) {
	f := newHandlerFixture()
	c := f.clients.Add(testClient, "mario", vo.DecisionApproved)
	req := f.requests.Add(c.ID(), "Betflag", vo.DecisionPending)

	f.press(t, testOperator, "cb-deny", "deny:request:"+req.SID())

	assert.Contains(t, f.bot.last(t, testClient).Text, "rifiutata")
	assert.Zero(t, f.provider.RequestCalls())
}

func TestHandler_EditFailureFallsBackToSend(t *testing.T) {
	f := newHandlerFixture()
	f.clients.Add(testClient, "mario", vo.DecisionPending)
	f.bot.editErr = &APIError{ErrorCode: 400, Description: "Bad Request: message to edit not found"}

	f.press(t, testOperator, "cb-1", "approve:client:42")

	assert.Contains(t, f.bot.last(t, testOperator).Text, "Client approved")
}

func TestHandler_StatusAndHelp(t *testing.T) {
	f := newHandlerFixture()

	f.text(t, testClient, "/status")
	assert.Contains(t, f.bot.last(t, testClient).Text, "Non sei ancora registrato")

	c := f.clients.Add(testClient, "mario", vo.DecisionApproved)
	req := f.requests.Add(c.ID(), "bet365", vo.DecisionApproved)
	a := testutil.NewAllocation(t, req.ID(), "ie", "A1", "+391234567")
	_, err := f.allocations.Create(context.Background(), a)
	require.NoError(t, err)

	f.text(t, testClient, "/status")
	status := f.bot.last(t, testClient).Text
	assert.Contains(t, status, "+391234567")
	assert.Contains(t, status, "bet365")
	assert.Contains(t, status, "in attesa di codice")

	f.text(t, testClient, "/help")
	help := f.bot.last(t, testClient).Text
	for _, name := range []string{"bet365", "sisal", "SNAI", "Betflag"} {
		assert.Contains(t, help, name)
	}
	assert.NotContains(t, help, "/admin")

	f.text(t, testClient, "hello")
	assert.Contains(t, f.bot.last(t, testClient).Text, "/help")
}

func TestHandler_AdminPanel(t *testing.T) {
	f := newHandlerFixture()
	f.provider.GetBalanceFunc = func(ctx context.Context) (string, error) { return "12.50", nil }

	f.text(t, testClient, "/admin")
	assert.Contains(t, f.bot.last(t, testClient).Text, "Riservato agli operatori")

	f.text(t, testOperator, "/admin")
	panel := f.bot.last(t, testOperator)
	assert.Contains(t, panel.Text, "12.50")
	assert.Equal(t, []string{
		"list:pending:clients", "list:pending:requests", "list:pending:unallocated",
	}, callbacks(panel.Keyboard))
}

func TestHandler_ListPending(t *testing.T) {
	f := newHandlerFixture()

	f.press(t, testOperator, "cb-1", "list:pending:clients")
	assert.Equal(t, "✨ Nothing pending.", f.bot.last(t, testOperator).Text)

	f.clients.Add(1, "a", vo.DecisionPending)
	f.clients.Add(2, "b", vo.DecisionPending)
	approved := f.clients.Add(3, "c", vo.DecisionApproved)
	pending := f.requests.Add(approved.ID(), "sisal", vo.DecisionPending)
	unallocated := f.requests.Add(approved.ID(), "bet365", vo.DecisionApproved)
	f.bot.reset()

	f.press(t, testOperator, "cb-2", "list:pending:clients")
	assert.Len(t, f.bot.to(testOperator), 2)

	f.bot.reset()
	f.press(t, testOperator, "cb-3", "list:pending:requests")
	msgs := f.bot.to(testOperator)
	require.Len(t, msgs, 1)
	assert.Contains(t, callbacks(msgs[0].Keyboard), "approve:request:"+pending.SID())

	f.bot.reset()
	f.press(t, testOperator, "cb-4", "list:pending:unallocated")
	msgs = f.bot.to(testOperator)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"retry:request:" + unallocated.SID()}, callbacks(msgs[0].Keyboard))
}

func TestHandler_IgnoresBotsAndMalformedCallbacks(t *testing.T) {
	f := newHandlerFixture()

	err := f.handler.HandleUpdate(context.Background(), &Update{
		UpdateID: 1,
		Message:  &Message{From: &User{ID: 5, IsBot: true}, Chat: &Chat{ID: 5}, Text: "/start"},
	})
	require.NoError(t, err)
	assert.Empty(t, f.bot.to(5))

	f.press(t, testOperator, "cb-bad", "garbage")
	require.Len(t, f.bot.answered, 1)
	assert.Empty(t, f.bot.answered[0].Text)
}
