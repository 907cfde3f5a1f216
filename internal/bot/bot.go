package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/YouBrin/BotChina/internal/flow"
	"github.com/YouBrin/BotChina/internal/params"
)

// choicePrefix namespaces button custom IDs so unrelated components are
// ignored.
const choicePrefix = "choice:"

type Bot struct {
	session    *discordgo.Session
	dispatcher *flow.Dispatcher
	refresh    *refreshWorker
	adminID    string
}

func New(token, adminID string, cache *params.Cache) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		refresh: newRefreshWorker(cache),
		adminID: adminID,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return bot, nil
}

// SetDispatcher wires the conversation dispatcher. The dispatcher needs the
// bot as its Chat, so it is built after New and attached here.
func (b *Bot) SetDispatcher(d *flow.Dispatcher) {
	b.dispatcher = d
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.refresh.start()
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.refresh.stop()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author.Bot || b.dispatcher == nil {
		return
	}

	key := flow.ConvKey{ChannelID: m.ChannelID, UserID: m.Author.ID}
	b.dispatcher.HandleText(context.Background(), key, m.Content)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || b.dispatcher == nil {
		return
	}

	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, choicePrefix) {
		return
	}

	// Ack the press; the flow answers with regular messages.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Printf("Failed to ack interaction: %v", err)
	}

	key := flow.ConvKey{ChannelID: i.ChannelID, UserID: interactionUserID(i)}
	b.dispatcher.HandleChoice(context.Background(), key, strings.TrimPrefix(customID, choicePrefix))
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
