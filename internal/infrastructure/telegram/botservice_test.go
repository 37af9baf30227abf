package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/shared/config"
)

type recordedCall struct {
	Method string
	Body   map[string]any
}

type fakeBotAPI struct {
	mu    sync.Mutex
	calls []recordedCall
	// reply returns the raw JSON answer for a method; nil means {"ok":true,"result":true}.
	reply func(method string, body map[string]any) (int, string)
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		assert.Equal(t, "/bot123:secret/"+method, r.URL.Path)

		body := map[string]any{}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &body))
		}
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{Method: method, Body: body})
		f.mu.Unlock()

		status, answer := http.StatusOK, `{"ok":true,"result":true}`
		if f.reply != nil {
			if s, a := f.reply(method, body); a != "" {
				status, answer = s, a
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, answer)
	})
}

func (f *fakeBotAPI) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestBot(t *testing.T, api *fakeBotAPI) *BotService {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return NewBotService(config.TelegramConfig{
		BotToken:    "123:secret",
		APIBaseURL:  srv.URL + "/",
		PollTimeout: 1,
	}, srv.Client())
}

func TestNewBotService_BotID(t *testing.T) {
	bot := NewBotService(config.TelegramConfig{BotToken: "987654:abc"}, nil)
	assert.Equal(t, "987654", bot.BotID())
	assert.Equal(t, "https://api.telegram.org/bot987654:abc", bot.baseURL)
}

func TestBotService_SendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.SendMessage(context.Background(), 42, "<b>ciao</b>"))

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].Method)
	assert.Equal(t, float64(42), calls[0].Body["chat_id"])
	assert.Equal(t, "<b>ciao</b>", calls[0].Body["text"])
	assert.Equal(t, "HTML", calls[0].Body["parse_mode"])
}

func TestBotService_SendMessagePlainHasNoParseMode(t *testing.T) {
	api := &fakeBotAPI{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.SendMessagePlain(context.Background(), 7, "📱 New message from +39123:\n\n<123456>"))

	calls := api.Calls()
	require.Len(t, calls, 1)
	_, hasParseMode := calls[0].Body["parse_mode"]
	assert.False(t, hasParseMode)
	assert.Equal(t, "📱 New message from +39123:\n\n<123456>", calls[0].Body["text"])
}

func TestBotService_SendMessageSplitsLongText(t *testing.T) {
	api := &fakeBotAPI{}
	bot := newTestBot(t, api)
	text := strings.Repeat("a", 4000) + "\n" + strings.Repeat("b", 200)

	require.NoError(t, bot.SendMessage(context.Background(), 1, text))

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, strings.Repeat("b", 200), calls[1].Body["text"])
}

func TestBotService_InlineKeyboard(t *testing.T) {
	api := &fakeBotAPI{}
	bot := newTestBot(t, api)
	kb := NewInlineKeyboard(NewInlineKeyboardRow(NewInlineKeyboardButton("Approva", "approve:client:5")))

	require.NoError(t, bot.SendMessageWithInlineKeyboard(context.Background(), 1, "x", kb))
	require.NoError(t, bot.EditMessageWithInlineKeyboard(context.Background(), 1, 9, "y", nil))

	calls := api.Calls()
	require.Len(t, calls, 2)
	markup := calls[0].Body["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "approve:client:5", button["callback_data"])

	assert.Equal(t, "editMessageText", calls[1].Method)
	assert.Equal(t, float64(9), calls[1].Body["message_id"])
	_, hasMarkup := calls[1].Body["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestBotService_APIErrors(t *testing.T) {
	api := &fakeBotAPI{reply: func(method string, body map[string]any) (int, string) {
		switch body["chat_id"] {
		case float64(403):
			return http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
		case float64(429):
			return http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`
		}
		return 0, ""
	}}
	bot := newTestBot(t, api)
	ctx := context.Background()

	err := bot.SendMessage(ctx, 403, "x")
	require.Error(t, err)
	assert.True(t, IsBotBlocked(err))
	assert.False(t, IsRetryAfter(err))

	err = bot.SendMessage(ctx, 429, "x")
	require.Error(t, err)
	assert.True(t, IsRetryAfter(err))
	assert.Equal(t, 3*time.Second, RetryAfter(err))
	assert.Contains(t, err.Error(), "retry_after=3s")
}

func TestBotService_GetUpdates(t *testing.T) {
	api := &fakeBotAPI{reply: func(method string, body map[string]any) (int, string) {
		if method == "getUpdates" {
			return http.StatusOK, `{"ok":true,"result":[
				{"update_id":10,"message":{"message_id":1,"from":{"id":5,"first_name":"Mario","language_code":"it"},"chat":{"id":5,"type":"private"},"text":"/start"}},
				{"update_id":11,"callback_query":{"id":"cb1","from":{"id":6,"first_name":"Op"},"data":"list:pending:clients"}}
			]}`
		}
		return 0, ""
	}}
	bot := newTestBot(t, api)

	updates, err := bot.GetUpdates(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, "it", updates[0].Message.From.LanguageCode)
	assert.Equal(t, "cb1", updates[1].CallbackQuery.ID)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, float64(10), calls[0].Body["offset"])
	assert.Equal(t, float64(1), calls[0].Body["timeout"])
}

func TestBotService_GetMe(t *testing.T) {
	api := &fakeBotAPI{reply: func(method string, body map[string]any) (int, string) {
		if method == "getMe" {
			return http.StatusOK, `{"ok":true,"result":{"id":123,"is_bot":true,"first_name":"Broker","username":"otp_broker_bot"}}`
		}
		return 0, ""
	}}
	bot := newTestBot(t, api)

	me, err := bot.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "otp_broker_bot", me.Username)
	assert.True(t, me.IsBot)
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"ciao"}, splitMessage("ciao", 10))
		assert.Equal(t, []string{""}, splitMessage("", 10))
	})

	t.Run("prefers paragraph then line boundaries", func(t *testing.T) {
		chunks := splitMessage("aaaa\n\nbbbb\ncc", 9)
		assert.Equal(t, []string{"aaaa\n\n", "bbbb\ncc"}, chunks)

		chunks = splitMessage("aaaa\nbbbbbbb", 9)
		assert.Equal(t, []string{"aaaa\n", "bbbbbbb"}, chunks)
	})

	t.Run("hard cut respects runes", func(t *testing.T) {
		chunks := splitMessage("àèìòùàèìòù", 4)
		assert.Equal(t, []string{"àèìò", "ùàèì", "òù"}, chunks)
	})
}

func TestCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/start", "start", "", true},
		{"/request bet365", "request", "bet365", true},
		{"/Request@otp_broker_bot  sisal ", "request", "sisal", true},
		{"ciao", "", "", false},
		{"/", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := command(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, name)
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestParseCallbackData(t *testing.T) {
	d, err := parseCallbackData("approve:client:42")
	require.NoError(t, err)
	id, err := d.PlatformID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, clientCallback(verbApprove, 42), d.String())

	d, err = parseCallbackData("select:service:SNAI")
	require.NoError(t, err)
	assert.Equal(t, callbackData{Verb: verbSelect, Subject: subjectService, Arg: "SNAI"}, d)

	for _, bad := range []string{"", "approve", "approve:client", "approve::1", ":client:1"} {
		_, err := parseCallbackData(bad)
		assert.Error(t, err, bad)
	}
}
