package telegram

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram/i18n"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
)

// handleCallback dispatches an inline button press. Every press is answered
// exactly once so the client spinner stops, including redeliveries.
func (h *BrokerUpdateHandler) handleCallback(ctx context.Context, sess Session, raw string) error {
	if sess.CallbackID != "" {
		if _, dup := h.seen.Get(sess.CallbackID); dup {
			h.logger.Debugw("ignoring redelivered callback", "callback_id", sess.CallbackID)
			return nil
		}
		h.seen.Add(sess.CallbackID, struct{}{})
	}

	data, err := parseCallbackData(raw)
	if err != nil {
		h.logger.Warnw("invalid callback data", "user_id", sess.UserID, "error", err)
		return h.answer(ctx, sess, "", false)
	}

	if data.Verb == verbSelect && data.Subject == subjectService {
		return h.onSelectService(ctx, sess, data.Arg)
	}
	if !sess.Operator {
		return h.answer(ctx, sess, i18n.MsgNotOperator(sess.Lang), true)
	}

	switch {
	case data.Subject == subjectClient && (data.Verb == verbApprove || data.Verb == verbDeny):
		return h.onDecideClient(ctx, sess, data)
	case data.Subject == subjectRequest && data.Verb == verbApprove:
		return h.onApproveRequest(ctx, sess, data.Arg)
	case data.Subject == subjectRequest && data.Verb == verbDeny:
		return h.onDenyRequest(ctx, sess, data.Arg)
	case data.Subject == subjectRequest && data.Verb == verbRetry:
		return h.onRetryRequest(ctx, sess, data.Arg)
	case data.Verb == verbList && data.Subject == subjectPending:
		return h.onListPending(ctx, sess, data.Arg)
	default:
		h.logger.Warnw("unknown callback", "data", raw, "user_id", sess.UserID)
		return h.answer(ctx, sess, "", false)
	}
}

func (h *BrokerUpdateHandler) onSelectService(ctx context.Context, sess Session, service string) error {
	text := h.submit(ctx, sess, service)
	if err := h.answer(ctx, sess, "", false); err != nil {
		return err
	}
	return h.replaceOrSend(ctx, sess, text, nil)
}

func (h *BrokerUpdateHandler) onDecideClient(ctx context.Context, sess Session, data callbackData) error {
	platformID, err := data.PlatformID()
	if err != nil {
		h.logger.Warnw("invalid client id in callback", "data", data.String())
		return h.answer(ctx, sess, "", false)
	}

	approve := data.Verb == verbApprove
	decide := h.uc.DecideClient.Deny
	if approve {
		decide = h.uc.DecideClient.Approve
	}
	res, err := decide(ctx, platformID, sess.UserID)
	if err != nil {
		return h.answerDecisionError(ctx, sess, "decide client", err)
	}

	if err := h.answer(ctx, sess, "", false); err != nil {
		h.logger.Debugw("failed to answer callback", "error", err)
	}
	h.announce.ClientDecided(ctx, res.Client, approve)
	return h.replaceOrSend(ctx, sess, i18n.MsgClientDecided(sess.Lang, res.Client, approve), nil)
}

func (h *BrokerUpdateHandler) onApproveRequest(ctx context.Context, sess Session, sid string) error {
	res, err := h.uc.ApproveAndAllocate.Execute(ctx, sid, sess.UserID)
	if err != nil {
		return h.answerDecisionError(ctx, sess, "approve request", err)
	}
	if res.AllocationErr != nil {
		if err := h.answer(ctx, sess, i18n.MsgProviderUnavailable(sess.Lang), true); err != nil {
			h.logger.Debugw("failed to answer callback", "error", err)
		}
		return h.replaceOrSend(ctx, sess, i18n.MsgAllocationFailed(sess.Lang, res.Request, reason(res.AllocationErr)), retryKeyboard(sess.Lang, sid))
	}

	if err := h.answer(ctx, sess, "", false); err != nil {
		h.logger.Debugw("failed to answer callback", "error", err)
	}
	h.announce.NumberAssigned(ctx, res.Request, res.Allocation)
	return h.replaceOrSend(ctx, sess, i18n.MsgRequestAllocated(sess.Lang, res.Request, res.Allocation), nil)
}

func (h *BrokerUpdateHandler) onDenyRequest(ctx context.Context, sess Session, sid string) error {
	res, err := h.uc.DecideRequest.Deny(ctx, sid, sess.UserID)
	if err != nil {
		return h.answerDecisionError(ctx, sess, "deny request", err)
	}
	if err := h.answer(ctx, sess, "", false); err != nil {
		h.logger.Debugw("failed to answer callback", "error", err)
	}
	h.announce.RequestDenied(ctx, res.Request)
	return h.replaceOrSend(ctx, sess, i18n.MsgRequestDecidedDenied(sess.Lang, res.Request), nil)
}

func (h *BrokerUpdateHandler) onRetryRequest(ctx context.Context, sess Session, sid string) error {
	res, err := h.uc.RetryAllocation.Execute(ctx, sid, sess.UserID)
	if err != nil {
		if errors.IsUnavailableError(err) {
			// Keep the retry button in place for the next attempt.
			return h.answer(ctx, sess, i18n.MsgProviderUnavailable(sess.Lang), true)
		}
		return h.answerDecisionError(ctx, sess, "retry allocation", err)
	}

	if err := h.answer(ctx, sess, "", false); err != nil {
		h.logger.Debugw("failed to answer callback", "error", err)
	}
	if !res.Existing && res.Request != nil {
		h.announce.NumberAssigned(ctx, res.Request, res.Allocation)
	}
	return h.replaceOrSend(ctx, sess, i18n.MsgRequestAllocated(sess.Lang, res.Request, res.Allocation), nil)
}

func (h *BrokerUpdateHandler) onListPending(ctx context.Context, sess Session, list string) error {
	if err := h.answer(ctx, sess, "", false); err != nil {
		h.logger.Debugw("failed to answer callback", "error", err)
	}

	type item struct {
		text     string
		keyboard *InlineKeyboardMarkup
	}
	var items []item

	switch list {
	case pendingClients:
		clients, err := h.uc.ListPending.Clients(ctx, sess.UserID)
		if err != nil {
			return h.replyError(ctx, sess, "list pending clients", err)
		}
		for _, c := range clients {
			items = append(items, item{i18n.MsgNewClient(sess.Lang, c), clientDecisionKeyboard(sess.Lang, c.PlatformID)})
		}
	case pendingRequests:
		requests, err := h.uc.ListPending.Requests(ctx, sess.UserID)
		if err != nil {
			return h.replyError(ctx, sess, "list pending requests", err)
		}
		for _, r := range requests {
			items = append(items, item{i18n.MsgNewRequest(sess.Lang, r), requestDecisionKeyboard(sess.Lang, r.SID)})
		}
	case pendingUnallocated:
		requests, err := h.uc.ListUnallocated.Execute(ctx, sess.UserID)
		if err != nil {
			return h.replyError(ctx, sess, "list unallocated requests", err)
		}
		for _, r := range requests {
			items = append(items, item{i18n.MsgUnallocatedRequest(sess.Lang, r), retryKeyboard(sess.Lang, r.SID)})
		}
	default:
		h.logger.Warnw("unknown pending list", "list", list)
		return nil
	}

	if len(items) == 0 {
		return h.bot.SendMessage(ctx, sess.ChatID, i18n.MsgNothingPending(sess.Lang))
	}
	if len(items) > maxListItems {
		items = items[:maxListItems]
	}
	for _, it := range items {
		if err := h.bot.SendMessageWithInlineKeyboard(ctx, sess.ChatID, it.text, it.keyboard); err != nil {
			return err
		}
	}
	return nil
}

// answerDecisionError turns a use case error into a callback alert.
func (h *BrokerUpdateHandler) answerDecisionError(ctx context.Context, sess Session, op string, err error) error {
	var text string
	switch {
	case errors.IsConflictError(err):
		text = i18n.MsgAlreadyDecided(sess.Lang)
	case errors.IsNotFoundError(err):
		text = i18n.MsgNotFound(sess.Lang)
	case errors.IsForbiddenError(err):
		text = i18n.MsgNotOperator(sess.Lang)
	default:
		h.logger.Errorw("telegram callback failed", "op", op, "user_id", sess.UserID, "error", err)
		text = i18n.MsgGenericError(sess.Lang)
	}
	return h.answer(ctx, sess, text, true)
}

func (h *BrokerUpdateHandler) answer(ctx context.Context, sess Session, text string, alert bool) error {
	if sess.CallbackID == "" {
		return nil
	}
	return h.bot.AnswerCallbackQuery(ctx, sess.CallbackID, text, alert)
}

// replaceOrSend edits the message that carried the pressed button, or sends a
// new one when there is nothing to edit.
func (h *BrokerUpdateHandler) replaceOrSend(ctx context.Context, sess Session, text string, keyboard *InlineKeyboardMarkup) error {
	if sess.MessageID != 0 {
		err := h.bot.EditMessageWithInlineKeyboard(ctx, sess.ChatID, sess.MessageID, text, keyboard)
		if err == nil || isMessageNotModified(err) {
			return nil
		}
		h.logger.Debugw("edit failed, sending new message", "error", err)
	}
	if keyboard != nil {
		return h.bot.SendMessageWithInlineKeyboard(ctx, sess.ChatID, text, keyboard)
	}
	return h.bot.SendMessage(ctx, sess.ChatID, text)
}

func reason(err error) string {
	if appErr := errors.GetAppError(err); appErr != nil {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return err.Error()
}
