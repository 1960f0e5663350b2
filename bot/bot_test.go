package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/events"
	"skillarena/models"
)

type fakeSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channels = append(f.channels, channelID)
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, nil
}

func newTestBot(sender embedSender) *Bot {
	return &Bot{config: Config{AdminChannelID: "admin-123"}, sender: sender}
}

func TestBuildAlertEmbed(t *testing.T) {
	t.Run("withdrawal", func(t *testing.T) {
		embed := buildAlertEmbed(events.TransactionRequestedEvent{
			TransactionID: 9,
			UserID:        1,
			Username:      "sam",
			TxType:        models.TransactionTypeWithdrawal,
			Method:        models.TransactionMethodManual,
			Amount:        25000,
		})

		require.NotNil(t, embed)
		assert.Contains(t, embed.Title, "Withdrawal")
		assert.Equal(t, ColorWarning, embed.Color)
		assert.Equal(t, "₹25,000", embed.Fields[1].Value)
		assert.Len(t, embed.Fields, 3)
	})

	t.Run("deposit shows utr", func(t *testing.T) {
		embed := buildAlertEmbed(events.TransactionRequestedEvent{
			TxType: models.TransactionTypeDeposit,
			Amount: 500,
			UTRID:  "UTR123456",
		})

		require.NotNil(t, embed)
		assert.Contains(t, embed.Title, "Deposit")
		assert.Equal(t, "`UTR123456`", embed.Fields[3].Value)
	})

	t.Run("only disputes among match changes", func(t *testing.T) {
		assert.Nil(t, buildAlertEmbed(events.MatchStateChangeEvent{NewState: models.MatchStatusLive}))
		embed := buildAlertEmbed(events.MatchStateChangeEvent{OldState: models.MatchStatusLive, NewState: models.MatchStatusDisputed, Title: "Finals"})
		require.NotNil(t, embed)
		assert.Equal(t, "live", embed.Fields[0].Value)
		assert.Contains(t, embed.Fields[1].Value, "<t:")
	})

	t.Run("ignored events", func(t *testing.T) {
		assert.Nil(t, buildAlertEmbed(events.BalanceChangeEvent{}))
	})
}

func TestBot_HandleEvent(t *testing.T) {
	sender := &fakeSender{}
	b := newTestBot(sender)

	b.handleEvent(context.Background(), events.TicketCreatedEvent{TicketID: 4, Email: "a@example.com", Subject: "Help"})
	b.handleEvent(context.Background(), events.AccountCreatedEvent{UserID: 1})

	require.Len(t, sender.embeds, 1)
	assert.Equal(t, "admin-123", sender.channels[0])
	assert.Equal(t, "Ticket #4", sender.embeds[0].Footer.Text)
}

func TestBot_HandleEvent_SendFailureDoesNotPanic(t *testing.T) {
	b := newTestBot(&fakeSender{err: errors.New("discord down")})

	assert.NotPanics(t, func() {
		b.handleEvent(context.Background(), events.VerificationRequestedEvent{RequestID: 1, Username: "sam"})
	})
}
