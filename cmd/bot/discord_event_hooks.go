package main

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
	"github.com/benjamonnguyen/pomostudy/stats"
	"github.com/benjamonnguyen/pomostudy/timer"
)

const (
	defaultErrorMsg = "Looks like something went wrong. Try again in a bit or reach out to support."
	noTimerMsg      = "There is no timer in this channel. Use /start to create one."
	defaultStatDays = 7
)

func isCommand(m *discordgo.InteractionCreate, cmd discordgo.ApplicationCommand) bool {
	return m.Type == discordgo.InteractionApplicationCommand && m.ApplicationCommandData().Name == cmd.Name
}

// parseStartOptions returns nil settings when no duration option was given.
func parseStartOptions(base pomostudy.Settings, opts []*discordgo.ApplicationCommandInteractionDataOption) (*pomostudy.Settings, string) {
	var (
		changed bool
		taskID  string
	)
	settings := base
	for _, opt := range opts {
		switch opt.Name {
		case pomostudy.WorkOption, pomostudy.ShortBreakOption, pomostudy.LongBreakOption, pomostudy.IntervalsOption:
			val, ok := opt.Value.(float64)
			if !ok {
				continue
			}
			intVal := int(val)
			switch opt.Name {
			case pomostudy.WorkOption:
				settings.WorkMinutes = intVal
			case pomostudy.ShortBreakOption:
				settings.ShortBreakMinutes = intVal
			case pomostudy.LongBreakOption:
				settings.LongBreakMinutes = intVal
			case pomostudy.IntervalsOption:
				settings.SessionsBeforeLongBreak = intVal
			}
			changed = true
		case pomostudy.TaskOption:
			if val, ok := opt.Value.(string); ok {
				taskID = val
			}
		}
	}
	if !changed {
		return nil, taskID
	}
	return &settings, taskID
}

func StartTimer(ctx context.Context, mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if !isCommand(m, pomostudy.StartCommand) {
		return false
	}

	base := pomostudy.DefaultSettings()
	if _, current, err := mgr.State(m.ChannelID); err == nil {
		base = current
	}
	settings, taskID := parseStartOptions(base, m.ApplicationCommandData().Options)

	state, err := mgr.StartTimer(ctx, startTimerRequest{
		guildID:   m.GuildID,
		channelID: m.ChannelID,
		settings:  settings,
		taskID:    taskID,
	})
	if err != nil {
		msg := defaultErrorMsg
		if errors.Is(err, pomostudy.ErrInvalidSettings) {
			msg = err.Error()
		} else {
			log.Error("failed to start timer", "channelID", m.ChannelID, "err", err)
		}
		if err := dm.RespondEphemeral(m.Interaction, msg); err != nil {
			log.Error(err)
		}
		return true
	}
	if user := GetUser(m.Interaction); user != nil {
		log.Info("started timer", "channelID", m.ChannelID, "userID", user.ID, "task", taskID)
	}

	_, current, _ := mgr.State(m.ChannelID)
	if err := dm.Respond(m.Interaction, TimerMessageComponents(state, current)...); err != nil {
		log.Error(err)
	}
	return true
}

func PauseTimer(mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if !isCommand(m, pomostudy.PauseCommand) {
		return false
	}
	respondWithState(mgr, dm, m, func() (timer.State, error) {
		return mgr.PauseTimer(m.ChannelID)
	})
	return true
}

func ResetTimer(mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if !isCommand(m, pomostudy.ResetCommand) {
		return false
	}
	respondWithState(mgr, dm, m, func() (timer.State, error) {
		return mgr.ResetTimer(m.ChannelID)
	})
	return true
}

func SwitchInterval(mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if !isCommand(m, pomostudy.ModeCommand) {
		return false
	}

	var raw string
	for _, opt := range m.ApplicationCommandData().Options {
		if opt.Name == pomostudy.IntervalOption {
			raw, _ = opt.Value.(string)
		}
	}
	t, err := pomostudy.ParseIntervalType(raw)
	if err != nil {
		if err := dm.RespondEphemeral(m.Interaction, err.Error()); err != nil {
			log.Error(err)
		}
		return true
	}

	respondWithState(mgr, dm, m, func() (timer.State, error) {
		return mgr.SetIntervalType(m.ChannelID, t)
	})
	return true
}

func StopTimer(mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if !isCommand(m, pomostudy.StopCommand) {
		return false
	}

	if _, err := mgr.StopTimer(m.ChannelID); err != nil {
		msg := defaultErrorMsg
		if errors.Is(err, ErrNoTimer) {
			msg = noTimerMsg
		}
		if err := dm.RespondEphemeral(m.Interaction, msg); err != nil {
			log.Error(err)
		}
		return true
	}
	if err := dm.Respond(m.Interaction, TextDisplay("Good stuff!")); err != nil {
		log.Error(err)
	}
	return true
}

func ShowStats(q stats.Querier, dm DiscordMessenger, m *discordgo.InteractionCreate, now time.Time) bool {
	if !isCommand(m, pomostudy.StatsCommand) {
		return false
	}

	days := defaultStatDays
	for _, opt := range m.ApplicationCommandData().Options {
		if opt.Name == pomostudy.DaysOption {
			if val, ok := opt.Value.(float64); ok {
				days = int(val)
			}
		}
	}

	owner := history.ForOwner(pomostudy.OwnerID(m.ChannelID))
	components := StatsMessageComponents(
		stats.Today(q, now, owner),
		stats.Streak(q, now, owner),
		stats.Daily(q, now, days, owner),
	)
	if err := dm.Respond(m.Interaction, components...); err != nil {
		log.Error(err)
	}
	return true
}

func respondWithState(mgr TimerManager, dm DiscordMessenger, m *discordgo.InteractionCreate, fn func() (timer.State, error)) {
	state, err := fn()
	if err != nil {
		msg := defaultErrorMsg
		if errors.Is(err, ErrNoTimer) {
			msg = noTimerMsg
		} else {
			log.Error("failed timer command", "channelID", m.ChannelID, "err", err)
		}
		if err := dm.RespondEphemeral(m.Interaction, msg); err != nil {
			log.Error(err)
		}
		return
	}

	_, settings, err := mgr.State(m.ChannelID)
	if err != nil {
		settings = pomostudy.DefaultSettings()
	}
	if err := dm.Respond(m.Interaction, TimerMessageComponents(state, settings)...); err != nil {
		log.Error(err)
	}
}
