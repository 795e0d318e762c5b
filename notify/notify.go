// Package notify delivers interval completion notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/timer"
)

type Notifier interface {
	Notify(context.Context, pomostudy.Notification) error
}

type NotifierFunc func(context.Context, pomostudy.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n pomostudy.Notification) error {
	return f(ctx, n)
}

// Hook adapts n to a timer completion hook. enabled is consulted on every
// completion so toggling notifications takes effect immediately.
func Hook(n Notifier, enabled func() bool, l *log.Logger) func(context.Context, timer.Completion) {
	if l == nil {
		l = log.Default()
	}
	return func(ctx context.Context, c timer.Completion) {
		if enabled != nil && !enabled() {
			return
		}
		if err := n.Notify(ctx, c.Notification); err != nil {
			l.Error("failed to send notification", "sessionID", c.Record.ID, "next", c.Next, "err", err)
		}
	}
}

// Multi notifies every notifier and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n pomostudy.Notification) error {
		var errs []error
		for _, notifier := range notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

type logNotifier struct {
	l *log.Logger
}

func Log(l *log.Logger) Notifier {
	if l == nil {
		l = log.Default()
	}
	return logNotifier{l: l}
}

func (n logNotifier) Notify(_ context.Context, msg pomostudy.Notification) error {
	n.l.Info(msg.Title, "body", msg.Body)
	return nil
}

type terminalNotifier struct {
	w io.Writer
}

// Terminal rings the bell and prints the notification to w.
func Terminal(w io.Writer) Notifier {
	return terminalNotifier{w: w}
}

func (n terminalNotifier) Notify(_ context.Context, msg pomostudy.Notification) error {
	_, err := fmt.Fprintf(n.w, "\a\n%s %s\n", msg.Title, msg.Body)
	return err
}

// ChannelMessageSender is satisfied by *discordgo.Session.
type ChannelMessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type discordNotifier struct {
	client    ChannelMessageSender
	channelID string
}

// Discord posts notifications as a message in channelID.
func Discord(client ChannelMessageSender, channelID string) Notifier {
	return discordNotifier{client: client, channelID: channelID}
}

func (n discordNotifier) Notify(ctx context.Context, msg pomostudy.Notification) error {
	_, err := n.client.ChannelMessageSend(n.channelID, FormatDiscord(msg), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send discord message to channel %s: %w", n.channelID, err)
	}
	return nil
}

func FormatDiscord(msg pomostudy.Notification) string {
	return fmt.Sprintf("**%s** %s", msg.Title, msg.Body)
}
