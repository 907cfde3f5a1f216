package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/YouBrin/BotChina/internal/flow"
)

// The bot is the flow package's Chat and Reporter: prompts become channel
// messages, choices become button rows, faults become a DM to the admin.

func (b *Bot) SendText(ctx context.Context, conv flow.ConvKey, text string) error {
	_, err := b.session.ChannelMessageSend(conv.ChannelID, text, discordgo.WithContext(ctx))
	return err
}

func (b *Bot) SendChoice(ctx context.Context, conv flow.ConvKey, text string, options []flow.Choice) error {
	_, err := b.session.ChannelMessageSendComplex(conv.ChannelID, &discordgo.MessageSend{
		Content:    text,
		Components: buttonRows(options),
	}, discordgo.WithContext(ctx))
	return err
}

func (b *Bot) ReportFault(ctx context.Context, conv flow.ConvKey, faultErr error) {
	if b.adminID == "" {
		return
	}
	ch, err := b.session.UserChannelCreate(b.adminID, discordgo.WithContext(ctx))
	if err != nil {
		log.Printf("Failed to open admin DM channel: %v", err)
		return
	}
	msg := fmt.Sprintf("⚠️ Fault in conversation %s/%s:\n%v", conv.ChannelID, conv.UserID, faultErr)
	if _, err := b.session.ChannelMessageSend(ch.ID, msg, discordgo.WithContext(ctx)); err != nil {
		log.Printf("Failed to report fault to admin: %v", err)
	}
}

// buttonRows lays options out five to a row, the component limit.
func buttonRows(options []flow.Choice) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for len(options) > 0 {
		n := len(options)
		if n > 5 {
			n = 5
		}
		row := discordgo.ActionsRow{}
		for _, opt := range options[:n] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    opt.Label,
				Style:    discordgo.SecondaryButton,
				CustomID: choicePrefix + opt.ID,
			})
		}
		rows = append(rows, row)
		options = options[n:]
	}
	return rows
}
