package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"skillarena/bot/common"
	"skillarena/events"
	"skillarena/models"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// buildAlertEmbed returns the admin alert for an event, or nil when the event needs no attention
func buildAlertEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.TransactionRequestedEvent:
		return buildTransactionEmbed(e)
	case events.VerificationRequestedEvent:
		return buildVerificationEmbed(e)
	case events.TicketCreatedEvent:
		return buildTicketEmbed(e)
	case events.MatchStateChangeEvent:
		if e.NewState == models.MatchStatusDisputed {
			return buildDisputeEmbed(e)
		}
	}
	return nil
}

func buildTransactionEmbed(e events.TransactionRequestedEvent) *discordgo.MessageEmbed {
	title := "💰 Deposit awaiting review"
	color := ColorPrimary
	if e.TxType == models.TransactionTypeWithdrawal {
		title = "🏦 Withdrawal awaiting review"
		color = ColorWarning
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("%s (#%d)", e.Username, e.UserID), Inline: true},
		{Name: "Amount", Value: common.FormatAmount(e.Amount), Inline: true},
		{Name: "Method", Value: string(e.Method), Inline: true},
	}
	if e.UTRID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "UTR", Value: "`" + e.UTRID + "`", Inline: false})
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Transaction #%d", e.TransactionID)},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func buildVerificationEmbed(e events.VerificationRequestedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🪪 Verification request",
		Description: fmt.Sprintf("**%s** (#%d) applied for **%s** level", e.Username, e.UserID, e.RequestedLevel),
		Color:       ColorPrimary,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Request #%d", e.RequestID)},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func buildTicketEmbed(e events.TicketCreatedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎫 New support ticket",
		Description: common.Truncate(e.Subject, 200),
		Color:       ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "From", Value: e.Email, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Ticket #%d", e.TicketID)},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func buildDisputeEmbed(e events.MatchStateChangeEvent) *discordgo.MessageEmbed {
	now := time.Now()
	return &discordgo.MessageEmbed{
		Title:       "⚠️ Match disputed",
		Description: fmt.Sprintf("**%s** needs an admin decision", common.Truncate(e.Title, 200)),
		Color:       ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Was", Value: string(e.OldState), Inline: true},
			{Name: "Flagged", Value: common.FormatDiscordTimestamp(now, "R"), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Match #%d", e.MatchID)},
		Timestamp: now.Format(time.RFC3339),
	}
}
