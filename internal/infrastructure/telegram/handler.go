package telegram

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	allocationUsecases "github.com/RobertLogos32/bto-prova/internal/application/allocation/usecases"
	lifecycleUsecases "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram/i18n"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	seenCallbackSize = 4096
	seenCallbackTTL  = 10 * time.Minute
	// maxListItems caps how many pending items one /admin list press posts.
	maxListItems = 20
)

// Messenger is the outbound half of the Bot API used by the handler.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
	SendMessageWithInlineKeyboard(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error
	EditMessageWithInlineKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error
}

// UseCases groups the application operations reachable from chat.
type UseCases struct {
	RegisterClient     *lifecycleUsecases.RegisterClientUseCase
	DecideClient       *lifecycleUsecases.DecideClientUseCase
	SubmitRequest      *lifecycleUsecases.SubmitRequestUseCase
	DecideRequest      *lifecycleUsecases.DecideRequestUseCase
	ListPending        *lifecycleUsecases.ListPendingUseCase
	ClientOverview     *lifecycleUsecases.ClientOverviewUseCase
	ApproveAndAllocate *allocationUsecases.ApproveAndAllocateUseCase
	RetryAllocation    *allocationUsecases.RetryAllocationUseCase
	ListUnallocated    *allocationUsecases.ListUnallocatedUseCase
	GetBalance         *allocationUsecases.GetBalanceUseCase
}

// BrokerUpdateHandler implements UpdateHandler for clients and operators.
type BrokerUpdateHandler struct {
	bot       Messenger
	uc        UseCases
	operators *lifecycleUsecases.OperatorRoster
	catalog   *numberrequest.Catalog
	announce  *Announcer
	seen      *expirable.LRU[string, struct{}]
	logger    logger.Interface
}

func NewBrokerUpdateHandler(
	bot Messenger,
	uc UseCases,
	operators *lifecycleUsecases.OperatorRoster,
	catalog *numberrequest.Catalog,
	logger logger.Interface,
) *BrokerUpdateHandler {
	return &BrokerUpdateHandler{
		bot:       bot,
		uc:        uc,
		operators: operators,
		catalog:   catalog,
		announce:  NewAnnouncer(bot, catalog, logger),
		seen:      expirable.NewLRU[string, struct{}](seenCallbackSize, nil, seenCallbackTTL),
		logger:    logger,
	}
}

// HandleUpdate processes a single Telegram update
func (h *BrokerUpdateHandler) HandleUpdate(ctx context.Context, update *Update) error {
	sess, ok := newSession(update, h.operators.IsOperator)
	if !ok {
		return nil
	}
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, sess, update.CallbackQuery.Data)
	}
	if update.Message == nil {
		return nil
	}

	name, args, isCommand := command(update.Message.Text)
	if !isCommand {
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgUnknownCommand(sess.Lang))
	}
	switch name {
	case "start":
		return h.handleStart(ctx, sess)
	case "request":
		return h.handleRequest(ctx, sess, args)
	case "status":
		return h.handleStatus(ctx, sess)
	case "help":
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgHelp(sess.Lang, h.catalog.Services(), sess.Operator))
	case "admin":
		return h.handleAdmin(ctx, sess)
	default:
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgUnknownCommand(sess.Lang))
	}
}

func (h *BrokerUpdateHandler) handleStart(ctx context.Context, sess Session) error {
	if sess.Operator {
		return h.handleAdmin(ctx, sess)
	}

	res, err := h.uc.RegisterClient.Execute(ctx, lifecycleUsecases.RegisterClientCommand{
		PlatformID: sess.UserID,
		Username:   sess.Username,
		FirstName:  sess.FirstName,
		LastName:   sess.LastName,
	})
	if err != nil {
		return h.replyError(ctx, sess, "register client", err)
	}

	if res.Created {
		h.notifyOperators(ctx, i18n.MsgNewClient(i18n.Default, res.Client), clientDecisionKeyboard(i18n.Default, res.Client.PlatformID))
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgWelcomePending(sess.Lang))
	}

	switch res.Client.Status {
	case "approved":
		return h.bot.SendMessageWithInlineKeyboard(ctx, sess.ChatID, i18n.MsgWelcomeApproved(sess.Lang), serviceKeyboard(h.catalog))
	case "denied":
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgAccountDenied(sess.Lang))
	default:
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgStillPending(sess.Lang))
	}
}

func (h *BrokerUpdateHandler) handleRequest(ctx context.Context, sess Session, service string) error {
	if service != "" {
		return h.bot.SendMessage(ctx, sess.ChatID, h.submit(ctx, sess, service))
	}

	overview, err := h.uc.ClientOverview.Execute(ctx, sess.UserID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgNotRegistered(sess.Lang))
		}
		return h.replyError(ctx, sess, "client overview", err)
	}
	if overview.Client.Status != "approved" {
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgNotApproved(sess.Lang))
	}
	return h.bot.SendMessageWithInlineKeyboard(ctx, sess.ChatID, i18n.MsgChooseService(sess.Lang), serviceKeyboard(h.catalog))
}

// submit records a request and alerts operators. It returns the reply for the client.
func (h *BrokerUpdateHandler) submit(ctx context.Context, sess Session, service string) string {
	res, err := h.uc.SubmitRequest.Execute(ctx, lifecycleUsecases.SubmitRequestCommand{
		PlatformID: sess.UserID,
		Service:    service,
	})
	switch {
	case err == nil:
	case errors.IsValidationError(err):
		return i18n.MsgUnknownService(sess.Lang, h.catalog.Names())
	case errors.IsForbiddenError(err):
		return i18n.MsgNotApproved(sess.Lang)
	default:
		h.logger.Errorw("failed to submit request", "platform_id", sess.UserID, "service", service, "error", err)
		return i18n.MsgGenericError(sess.Lang)
	}

	h.notifyOperators(ctx, i18n.MsgNewRequest(i18n.Default, res.Request), requestDecisionKeyboard(i18n.Default, res.Request.SID))
	return i18n.MsgRequestSubmitted(sess.Lang, res.Request.Service)
}

func (h *BrokerUpdateHandler) handleStatus(ctx context.Context, sess Session) error {
	res, err := h.uc.ClientOverview.Execute(ctx, sess.UserID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgNotRegistered(sess.Lang))
		}
		return h.replyError(ctx, sess, "client overview", err)
	}
	return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgStatus(sess.Lang, res.Client, res.Allocations))
}

func (h *BrokerUpdateHandler) handleAdmin(ctx context.Context, sess Session) error {
	if !sess.Operator {
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgNotOperator(sess.Lang))
	}
	balance, err := h.uc.GetBalance.Execute(ctx, sess.UserID)
	if err != nil {
		h.logger.Warnw("admin panel without balance", "error", err)
		balance = ""
	}
	return h.bot.SendMessageWithInlineKeyboard(ctx, sess.ChatID, i18n.MsgAdminPanel(sess.Lang, balance), adminKeyboard(sess.Lang))
}

// notifyOperators sends one message per operator. Failures are logged per recipient.
func (h *BrokerUpdateHandler) notifyOperators(ctx context.Context, text string, keyboard *InlineKeyboardMarkup) {
	for _, id := range h.operators.IDs() {
		if err := h.bot.SendMessageWithInlineKeyboard(ctx, id, text, keyboard); err != nil {
			h.logger.Warnw("failed to notify operator", "operator", id, "error", err)
		}
	}
}

func (h *BrokerUpdateHandler) replyError(ctx context.Context, sess Session, op string, err error) error {
	h.logger.Errorw("telegram command failed", "op", op, "user_id", sess.UserID, "error", err)
	return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgGenericError(sess.Lang))
}

func clientDecisionKeyboard(lang i18n.Lang, platformID int64) *InlineKeyboardMarkup {
	return NewInlineKeyboard(NewInlineKeyboardRow(
		NewInlineKeyboardButton(i18n.BtnApprove(lang), clientCallback(verbApprove, platformID)),
		NewInlineKeyboardButton(i18n.BtnDeny(lang), clientCallback(verbDeny, platformID)),
	))
}

func requestDecisionKeyboard(lang i18n.Lang, sid string) *InlineKeyboardMarkup {
	return NewInlineKeyboard(NewInlineKeyboardRow(
		NewInlineKeyboardButton(i18n.BtnApprove(lang), requestCallback(verbApprove, sid)),
		NewInlineKeyboardButton(i18n.BtnDeny(lang), requestCallback(verbDeny, sid)),
	))
}

func retryKeyboard(lang i18n.Lang, sid string) *InlineKeyboardMarkup {
	return NewInlineKeyboard(NewInlineKeyboardRow(
		NewInlineKeyboardButton(i18n.BtnRetry(lang), requestCallback(verbRetry, sid)),
	))
}

func adminKeyboard(lang i18n.Lang) *InlineKeyboardMarkup {
	return NewInlineKeyboard(
		NewInlineKeyboardRow(NewInlineKeyboardButton(i18n.BtnClients(lang), pendingCallback(pendingClients))),
		NewInlineKeyboardRow(NewInlineKeyboardButton(i18n.BtnRequests(lang), pendingCallback(pendingRequests))),
		NewInlineKeyboardRow(NewInlineKeyboardButton(i18n.BtnUnallocated(lang), pendingCallback(pendingUnallocated))),
	)
}
