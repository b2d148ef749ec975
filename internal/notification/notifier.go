// Package notification formats trading decisions into alerts and delivers
// them to chat and webhook channels. Delivery is best-effort: callers log
// failures and move on.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
//
// When Markdown is set, Message is already Telegram MarkdownV2 and is sent as
// is; otherwise channels that render markup escape it themselves. Title is
// always plain text.
type Alert struct {
	Level    AlertLevel `json:"level"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Markdown bool       `json:"markdown,omitempty"`
	LinkURL  string     `json:"link_url,omitempty"`
	LinkText string     `json:"link_text,omitempty"`
}

// AppendNote adds a plain-text line to the message, escaping it when the
// message is MarkdownV2.
func (a *Alert) AppendNote(note string) {
	if a.Markdown {
		note = "_" + escapeMarkdown(note) + "_"
	}
	if a.Message == "" {
		a.Message = note
		return
	}
	a.Message += "\n\n" + note
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a notifier that only logs alerts. It stands in for channels
// whose credentials are missing.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: slog.Default().With(slog.String("component", "notify"))}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.log.InfoContext(ctx, "alert",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
		slog.String("message", alert.Message),
	)
	return nil
}

// Multi fans an alert out to several notifiers. Every notifier is tried; the
// returned error joins the individual failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options selects the delivery channels.
type Options struct {
	TelegramToken  string
	TelegramChatID string
	WebhookURL     string
}

// New builds the notifier for opts. A channel with incomplete credentials is
// skipped with a warning; with no channel left the result is a LogNotifier.
func New(opts Options) Notifier {
	var out Multi
	switch {
	case opts.TelegramToken != "" && opts.TelegramChatID != "":
		out = append(out, NewTelegramNotifier(opts.TelegramToken, opts.TelegramChatID))
	case opts.TelegramToken != "" || opts.TelegramChatID != "":
		slog.Warn("telegram disabled: both TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required",
			slog.String("component", "notify"))
	}
	if opts.WebhookURL != "" {
		out = append(out, NewWebhookNotifier(opts.WebhookURL))
	}

	switch len(out) {
	case 0:
		slog.Warn("no notification channel configured, alerts are only logged",
			slog.String("component", "notify"))
		return NewLogNotifier()
	case 1:
		return out[0]
	default:
		return out
	}
}

// DescribeChannels names the channels behind n, for startup logging.
func DescribeChannels(n Notifier) []string {
	switch v := n.(type) {
	case Multi:
		var names []string
		for _, inner := range v {
			names = append(names, DescribeChannels(inner)...)
		}
		return names
	case *TelegramNotifier:
		return []string{"telegram"}
	case *WebhookNotifier:
		return []string{"webhook"}
	case *LogNotifier:
		return []string{"log"}
	default:
		return []string{fmt.Sprintf("%T", n)}
	}
}
