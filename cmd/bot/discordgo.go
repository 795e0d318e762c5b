package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/stats"
	"github.com/benjamonnguyen/pomostudy/timer"
)

type DiscordMessenger interface {
	Respond(it *discordgo.Interaction, components ...discordgo.MessageComponent) error
	RespondEphemeral(it *discordgo.Interaction, content string) error
}

func NewDiscordMessenger(client *discordgo.Session) DiscordMessenger {
	return &messenger{
		client: client,
	}
}

type messenger struct {
	client *discordgo.Session
}

func (m *messenger) Respond(it *discordgo.Interaction, components ...discordgo.MessageComponent) error {
	return m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:      discordgo.MessageFlagsIsComponentsV2,
			Components: components,
		},
	})
}

func (m *messenger) RespondEphemeral(it *discordgo.Interaction, content string) error {
	return m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	})
}

type Color int

const (
	ColorGreen     Color = 0x57f287
	ColorBlue      Color = 0x3498db
	ColorLightGrey Color = 0xbcc0c0
)

func (c Color) ToInt() *int {
	i := int(c)
	return &i
}

func TextDisplay(content string) discordgo.TextDisplay {
	return discordgo.TextDisplay{
		Content: content,
	}
}

const (
	timerBarFilledChar = "⣶"
	timerBarEmptyChar  = "⡀"
)

func TimerMessageComponents(state timer.State, settings pomostudy.Settings) []discordgo.MessageComponent {
	settingsTextParts := []string{
		"### Timer",
		fmt.Sprintf("%s: %d min", pomostudy.WorkInterval, settings.WorkMinutes),
		fmt.Sprintf("%s: %d min", pomostudy.ShortBreakInterval, settings.ShortBreakMinutes),
		fmt.Sprintf("%s: %d min", pomostudy.LongBreakInterval, settings.LongBreakMinutes),
		fmt.Sprintf("%s: %d | %d", "Interval", state.CompletedWorkIntervals%settings.SessionsBeforeLongBreak, settings.SessionsBeforeLongBreak),
	}
	current := fmt.Sprintf("%s %s", state.Clock(), timerBar(state, settings))
	switch state.IntervalType {
	case pomostudy.WorkInterval:
		settingsTextParts[1] = fmt.Sprintf("**%s**\n%s", settingsTextParts[1], current)
	case pomostudy.ShortBreakInterval:
		settingsTextParts[2] = fmt.Sprintf("**%s**\n%s", settingsTextParts[2], current)
	case pomostudy.LongBreakInterval:
		settingsTextParts[3] = fmt.Sprintf("**%s**\n%s", settingsTextParts[3], current)
	}
	accentColor := ColorGreen
	if !state.IsRunning {
		accentColor = ColorLightGrey
	}

	return []discordgo.MessageComponent{
		discordgo.Container{
			Components: []discordgo.MessageComponent{
				TextDisplay(strings.Join(settingsTextParts, "\n")),
			},
			AccentColor: accentColor.ToInt(),
		},
	}
}

func StatsMessageComponents(today stats.Day, streak int, daily []stats.Day) []discordgo.MessageComponent {
	parts := []string{
		"### Focus",
		fmt.Sprintf("Today: %d pomodoros, %s focused", today.CompletedSessions, stats.FormatMinutes(today.FocusedMinutes)),
		fmt.Sprintf("Streak: %d days", streak),
	}
	if len(daily) > 0 {
		parts = append(parts, "```")
		for _, d := range daily {
			parts = append(parts, fmt.Sprintf("%s %-20s %d", d.Date.Format("Mon 02"), strings.Repeat(timerBarFilledChar, min(d.CompletedSessions, 20)), d.CompletedSessions))
		}
		parts = append(parts, "```")
	}
	return []discordgo.MessageComponent{
		discordgo.Container{
			Components:  []discordgo.MessageComponent{TextDisplay(strings.Join(parts, "\n"))},
			AccentColor: ColorBlue.ToInt(),
		},
	}
}

func timerBar(state timer.State, settings pomostudy.Settings) string {
	const length = 20
	full := settings.Seconds(state.IntervalType)
	if state.RemainingSeconds <= 0 || full <= 0 {
		return strings.Repeat(timerBarEmptyChar, length)
	}
	percentage := float64(state.RemainingSeconds) / float64(full)
	filled := min(int(math.Round(percentage*length*10)/10), length)
	return strings.Repeat(timerBarFilledChar, filled) + strings.Repeat(timerBarEmptyChar, length-filled)
}

func GetUser(m *discordgo.Interaction) *discordgo.User {
	if m.Member != nil {
		return m.Member.User
	}
	return m.User
}
