package telegram

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram/i18n"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type clientSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithInlineKeyboard(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error
}

// Announcer tells clients about operator decisions taken in chat or through
// the admin API. The client's language is unknown at that point, so messages
// use i18n.Default. Delivery failures are logged and never returned.
type Announcer struct {
	bot     clientSender
	catalog *numberrequest.Catalog
	logger  logger.Interface
}

func NewAnnouncer(bot clientSender, catalog *numberrequest.Catalog, logger logger.Interface) *Announcer {
	return &Announcer{bot: bot, catalog: catalog, logger: logger}
}

// ClientDecided welcomes an approved client with the service picker, or
// tells a denied one.
func (a *Announcer) ClientDecided(ctx context.Context, c *dto.ClientDTO, approved bool) {
	if approved {
		a.send(ctx, c, i18n.MsgClientApproved(i18n.Default), serviceKeyboard(a.catalog))
		return
	}
	a.send(ctx, c, i18n.MsgAccountDenied(i18n.Default), nil)
}

func (a *Announcer) NumberAssigned(ctx context.Context, r *dto.RequestDTO, alloc *dto.AllocationDTO) {
	if r == nil || alloc == nil {
		return
	}
	a.send(ctx, r.Client, i18n.MsgNumberAssigned(i18n.Default, r.Service, alloc.Number), nil)
}

func (a *Announcer) RequestDenied(ctx context.Context, r *dto.RequestDTO) {
	if r == nil {
		return
	}
	a.send(ctx, r.Client, i18n.MsgRequestDenied(i18n.Default, r.Service), nil)
}

func (a *Announcer) send(ctx context.Context, c *dto.ClientDTO, text string, keyboard *InlineKeyboardMarkup) {
	if c == nil {
		return
	}
	var err error
	if keyboard != nil {
		err = a.bot.SendMessageWithInlineKeyboard(ctx, c.PlatformID, text, keyboard)
	} else {
		err = a.bot.SendMessage(ctx, c.PlatformID, text)
	}
	if err != nil {
		a.logger.Warnw("failed to notify client",
			"platform_id", c.PlatformID,
			"blocked", IsBotBlocked(err),
			"error", err,
		)
	}
}

func serviceKeyboard(catalog *numberrequest.Catalog) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	var row []InlineKeyboardButton
	for _, s := range catalog.Services() {
		data := serviceCallback(s.Name)
		if len(data) > maxCallbackData {
			continue
		}
		row = append(row, NewInlineKeyboardButton(s.Name, data))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return NewInlineKeyboard(rows...)
}
