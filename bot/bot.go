package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"skillarena/events"
)

// Config holds bot configuration
type Config struct {
	Token          string
	AdminChannelID string
}

// embedSender is the slice of the Discord session the notifier needs
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot posts review-queue alerts to the admin channel
type Bot struct {
	config  Config
	session *discordgo.Session
	sender  embedSender
}

// New opens a Discord session for the notifier
func New(config Config) (*Bot, error) {
	if config.AdminChannelID == "" {
		return nil, fmt.Errorf("admin channel id is required")
	}

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	log.WithField("channelId", config.AdminChannelID).Info("Discord admin notifier connected")

	return &Bot{
		config:  config,
		session: dg,
		sender:  dg,
	}, nil
}

func (b *Bot) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// Attach subscribes the notifier to the events admins need to act on
func (b *Bot) Attach(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeTransactionRequested,
		events.EventTypeVerificationRequested,
		events.EventTypeTicketCreated,
		events.EventTypeMatchStateChange,
	} {
		bus.Subscribe(eventType, b.handleEvent)
	}
}

func (b *Bot) handleEvent(ctx context.Context, event events.Event) {
	embed := buildAlertEmbed(event)
	if embed == nil {
		return
	}

	if _, err := b.sender.ChannelMessageSendEmbed(b.config.AdminChannelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to post admin alert")
		return
	}

	log.WithField("eventType", event.Type()).Debug("Posted admin alert")
}
