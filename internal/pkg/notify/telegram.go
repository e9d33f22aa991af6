package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// ErrQueueFull is returned when the send queue cannot take another event.
var ErrQueueFull = errors.New("telegram: message queue is full")

// ErrStopped is returned after Stop.
var ErrStopped = errors.New("telegram: notifier stopped")

// messageSender is the part of *tgbotapi.BotAPI the sink uses.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// queuedMessage represents a message queued for sending
type queuedMessage struct {
	event    models.Event
	text     string
	queuedAt time.Time
}

// TelegramSink queues events and sends them to one chat, spacing messages
// by at least the send interval.
type TelegramSink struct {
	bot      messageSender
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time

	queue     chan queuedMessage
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramSink connects to the Bot API and starts the sender goroutine.
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	sink := newTelegramSink(bot, chatID, telegramSendInterval, 100)
	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return sink, nil
}

func newTelegramSink(bot messageSender, chatID int64, interval time.Duration, buffer int) *TelegramSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &TelegramSink{
		bot:       bot,
		chatID:    chatID,
		interval:  interval,
		queue:     make(chan queuedMessage, buffer),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go s.run()
	return s
}

// Notify queues the event without blocking on the network.
func (s *TelegramSink) Notify(ctx context.Context, ev models.Event) error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	msg := queuedMessage{event: ev, text: FormatMarkdown(ev), queuedAt: time.Now()}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- msg:
		slog.Debug("Telegram: event queued", "event_id", ev.ID, "match", ev.Match, "queue_len", len(s.queue))
		return nil
	default:
		slog.Warn("Telegram: queue full, dropping event", "event_id", ev.ID, "match", ev.Match)
		return ErrQueueFull
	}
}

// QueueLen returns current number of messages in the send queue (for logging).
func (s *TelegramSink) QueueLen() int {
	return len(s.queue)
}

// Stop sends whatever is still queued and stops the sender.
func (s *TelegramSink) Stop() {
	s.cancel()
	<-s.queueDone
}

// run sends queued messages with proper intervals
func (s *TelegramSink) run() {
	for {
		select {
		case <-s.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-s.queue:
					s.send(msg, false)
				default:
					close(s.queueDone)
					return
				}
			}
		case msg := <-s.queue:
			s.send(msg, true)
		}
	}
}

func (s *TelegramSink) send(msg queuedMessage, wait bool) {
	tgMsg := tgbotapi.NewMessage(s.chatID, msg.text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown

	s.mu.Lock()
	defer s.mu.Unlock()

	if elapsed := time.Since(s.lastSend); wait && elapsed < s.interval {
		select {
		case <-s.ctx.Done():
		case <-time.After(s.interval - elapsed):
		}
	}
	s.lastSend = time.Now()
	_, err := s.bot.Send(tgMsg)
	if err != nil {
		slog.Error("Telegram send: failed",
			"error", err,
			"event_id", msg.event.ID,
			"match", msg.event.Match,
			"queued_for", time.Since(msg.queuedAt))
		return
	}
	slog.Info("Telegram send: success",
		"event_id", msg.event.ID,
		"type", msg.event.Type,
		"match", msg.event.Match,
		"delay_since_detection_sec", time.Since(msg.event.DetectedAt).Seconds(),
		"queue_length", len(s.queue))
}
