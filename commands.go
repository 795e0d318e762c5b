package pomostudy

import (
	"github.com/bwmarrin/discordgo"
)

const (
	WorkOption       = "pomodoro"
	ShortBreakOption = "short_break"
	LongBreakOption  = "long_break"
	IntervalsOption  = "intervals"
	TaskOption       = "task"
	IntervalOption   = "interval"
	DaysOption       = "days"
)

func float64Ptr(f float64) *float64 {
	return &f
}

var StartCommand = discordgo.ApplicationCommand{
	Name:        "start",
	Description: "start or resume the pomodoro timer in this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        WorkOption,
			Description: "pomodoro duration in minutes (Default: 25)",
			MinValue:    float64Ptr(1),
			MaxValue:    MaxIntervalMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        ShortBreakOption,
			Description: "short break duration in minutes (Default: 5)",
			MinValue:    float64Ptr(1),
			MaxValue:    MaxIntervalMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        LongBreakOption,
			Description: "long break duration in minutes (Default: 15)",
			MinValue:    float64Ptr(1),
			MaxValue:    MaxIntervalMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        IntervalsOption,
			Description: "number of pomodoros between long breaks (Default: 4)",
			MinValue:    float64Ptr(1),
			MaxValue:    MaxSessionsBeforeLongBreak,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        TaskOption,
			Description: "task you are working on",
		},
	},
}

var PauseCommand = discordgo.ApplicationCommand{
	Name:        "pause",
	Description: "pause the timer without ending the current interval",
}

var ResetCommand = discordgo.ApplicationCommand{
	Name:        "reset",
	Description: "abandon the current interval and restore its full duration",
}

var ModeCommand = discordgo.ApplicationCommand{
	Name:        "mode",
	Description: "switch to another interval type",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        IntervalOption,
			Description: "interval type",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: WorkInterval.String(), Value: WorkInterval.Key()},
				{Name: ShortBreakInterval.String(), Value: ShortBreakInterval.Key()},
				{Name: LongBreakInterval.String(), Value: LongBreakInterval.Key()},
			},
		},
	},
}

var StatsCommand = discordgo.ApplicationCommand{
	Name:        "stats",
	Description: "show focus statistics for this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        DaysOption,
			Description: "number of days to chart (Default: 7)",
			MinValue:    float64Ptr(1),
			MaxValue:    31,
		},
	},
}

var StopCommand = discordgo.ApplicationCommand{
	Name:        "stop",
	Description: "stop the timer in this channel",
}

var Commands = []*discordgo.ApplicationCommand{
	&StartCommand,
	&PauseCommand,
	&ResetCommand,
	&ModeCommand,
	&StatsCommand,
	&StopCommand,
}
