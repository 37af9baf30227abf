package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

func TestAnnouncer(t *testing.T) {
	bot := &fakeMessenger{}
	a := NewAnnouncer(bot, numberrequest.DefaultCatalog(), logger.NewNopLogger())
	ctx := context.Background()
	c := &dto.ClientDTO{PlatformID: testClient, DisplayName: "Mario"}

	a.ClientDecided(ctx, c, true)
	a.ClientDecided(ctx, c, false)
	a.NumberAssigned(ctx, &dto.RequestDTO{Service: "bet365", Client: c}, &dto.AllocationDTO{Number: "+393331112222"})
	a.RequestDenied(ctx, &dto.RequestDTO{Service: "SNAI", Client: c})

	a.NumberAssigned(ctx, &dto.RequestDTO{Service: "bet365"}, &dto.AllocationDTO{Number: "+39"})
	a.ClientDecided(ctx, nil, true)

	require.Len(t, bot.sent, 4)
	for _, m := range bot.sent {
		assert.Equal(t, testClient, m.ChatID)
	}
	require.NotNil(t, bot.sent[0].Keyboard, "approved clients get the service picker")
	assert.Nil(t, bot.sent[1].Keyboard)
	assert.Contains(t, bot.sent[2].Text, "+393331112222")
	assert.Contains(t, bot.sent[3].Text, "SNAI")
}

func TestServiceKeyboard_TwoPerRow(t *testing.T) {
	kb := serviceKeyboard(numberrequest.DefaultCatalog())

	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, serviceCallback("bet365"), kb.InlineKeyboard[0][0].CallbackData)
}
