package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/shared/config"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// BotService provides the subset of the Telegram Bot API the broker uses.
type BotService struct {
	httpClient  *http.Client
	baseURL     string
	botID       string
	pollTimeout int
}

// NewBotService creates a bot client. A nil httpClient gets a 30s timeout client.
func NewBotService(cfg config.TelegramConfig, httpClient *http.Client) *BotService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	botID, _, _ := strings.Cut(cfg.BotToken, ":")
	return &BotService{
		httpClient:  httpClient,
		baseURL:     fmt.Sprintf("%s/bot%s", apiBase, cfg.BotToken),
		botID:       botID,
		pollTimeout: pollTimeout,
	}
}

// BotID is the numeric prefix of the token, used to namespace persisted state.
func (s *BotService) BotID() string {
	return s.botID
}

// BotCommand represents a bot command for the command menu
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// DefaultCommands returns the command menu shown to every chat.
func DefaultCommands() []BotCommand {
	return []BotCommand{
		{Command: "start", Description: "Registrati / Register"},
		{Command: "request", Description: "Richiedi un numero / Request a number"},
		{Command: "status", Description: "I tuoi numeri / Your numbers"},
		{Command: "help", Description: "Servizi e comandi / Services and commands"},
	}
}

// OperatorCommands adds the operator menu to DefaultCommands.
func OperatorCommands() []BotCommand {
	return append(DefaultCommands(), BotCommand{Command: "admin", Description: "Pannello operatore / Operator panel"})
}

// SetMyCommands sets the default command menu.
func (s *BotService) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	return s.call(ctx, "setMyCommands", map[string]any{"commands": commands}, nil)
}

// SetMyCommandsForChat scopes a command menu to one chat.
func (s *BotService) SetMyCommandsForChat(ctx context.Context, chatID int64, commands []BotCommand) error {
	return s.call(ctx, "setMyCommands", map[string]any{
		"commands": commands,
		"scope": map[string]any{
			"type":    "chat",
			"chat_id": chatID,
		},
	}, nil)
}

// DeleteWebhook removes any webhook so long polling can receive updates.
func (s *BotService) DeleteWebhook(ctx context.Context) error {
	return s.call(ctx, "deleteWebhook", nil, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (s *BotService) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	body := map[string]any{
		"timeout":         s.pollTimeout,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if offset > 0 {
		body["offset"] = offset
	}
	// The long-poll request outlives the default client timeout.
	client := &http.Client{
		Transport: s.httpClient.Transport,
		Timeout:   time.Duration(s.pollTimeout+10) * time.Second,
	}
	var updates []Update
	if err := s.do(ctx, client, "getUpdates", body, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends an HTML message, splitting it when it exceeds the API limit.
func (s *BotService) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := s.call(ctx, "sendMessage", map[string]any{
			"chat_id":    chatID,
			"text":       chunk,
			"parse_mode": "HTML",
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// SendMessagePlain sends text without any parse mode.
func (s *BotService) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := s.call(ctx, "sendMessage", map[string]any{
			"chat_id": chatID,
			"text":    chunk,
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// SendMessageWithInlineKeyboard sends an HTML message with an inline keyboard.
func (s *BotService) SendMessageWithInlineKeyboard(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	return s.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"parse_mode":   "HTML",
		"reply_markup": keyboard,
	}, nil)
}

// EditMessageWithInlineKeyboard replaces the text and keyboard of a message.
// A nil keyboard removes the buttons.
func (s *BotService) EditMessageWithInlineKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		body["reply_markup"] = keyboard
	}
	return s.call(ctx, "editMessageText", body, nil)
}

// AnswerCallbackQuery stops the client spinner on a pressed button.
func (s *BotService) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	body := map[string]any{"callback_query_id": callbackQueryID}
	if text != "" {
		body["text"] = text
	}
	if showAlert {
		body["show_alert"] = true
	}
	return s.call(ctx, "answerCallbackQuery", body, nil)
}

// GetMe returns the bot's own user.
func (s *BotService) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := s.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// InlineKeyboardButton represents a button in an inline keyboard
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboardMarkup represents an inline keyboard
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

func NewInlineKeyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func NewInlineKeyboardRow(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return buttons
}

func NewInlineKeyboardButton(text, callbackData string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// Update represents a Telegram update from getUpdates
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// CallbackQuery represents a press on an inline keyboard button
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Message represents a Telegram message
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// User represents a Telegram user
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat represents a Telegram chat
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

func (s *BotService) call(ctx context.Context, method string, body map[string]any, out any) error {
	return s.do(ctx, s.httpClient, method, body, out)
}

func (s *BotService) do(ctx context.Context, client *http.Client, method string, body map[string]any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode %s response (http %d): %w", method, resp.StatusCode, err)
	}
	if !result.OK {
		apiErr := &APIError{ErrorCode: result.ErrorCode, Description: result.Description}
		if apiErr.ErrorCode == 0 {
			apiErr.ErrorCode = resp.StatusCode
		}
		if result.Parameters != nil {
			apiErr.RetryAfter = result.Parameters.RetryAfter
		}
		return apiErr
	}
	if out != nil && len(result.Result) > 0 {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}
