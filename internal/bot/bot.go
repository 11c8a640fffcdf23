package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/countdownbot/config"
	"github.com/tazhate/countdownbot/internal/conversation"
	"github.com/tazhate/countdownbot/internal/delivery"
	"github.com/tazhate/countdownbot/internal/service"
)

type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	eventService *service.EventService
	conv         *conversation.Manager
	server       *http.Server
}

func New(cfg *config.Config, eventSvc *service.EventService, conv *conversation.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", api.Self.UserName)

	bot := &Bot{
		api:          api,
		cfg:          cfg,
		eventService: eventSvc,
		conv:         conv,
	}

	bot.setCommands()

	return bot, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "new", Description: "➕ Создать отсчёт"},
		{Command: "list", Description: "📋 Все отсчёты в чате"},
		{Command: "my", Description: "👤 Мои отсчёты"},
		{Command: "delete", Description: "❌ Удалить отсчёт"},
		{Command: "cancel", Description: "🔙 Отменить создание"},
		{Command: "help", Description: "❓ Справка"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

func (b *Bot) SetupWebhook() error {
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s", webhookURL)
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/bot", b.webhookHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	b.server = &http.Server{
		Addr:    ":" + b.cfg.ServerPort,
		Handler: mux,
	}

	log.Printf("Starting webhook server on :%s", b.cfg.ServerPort)
	err := b.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

// webhookHandler decodes updates itself instead of using
// api.ListenForWebhook: tgbotapi v5 predates forum topics, so
// message_thread_id has to be pulled out of the raw JSON by hand.
func (b *Bot) webhookHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.Printf("Error decoding update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	go b.handleUpdate(update, threadIDFromRaw(body))
	w.WriteHeader(http.StatusOK)
}

func threadIDFromRaw(body []byte) int {
	var raw struct {
		Message *struct {
			MessageThreadID int `json:"message_thread_id"`
		} `json:"message"`
		CallbackQuery *struct {
			Message *struct {
				MessageThreadID int `json:"message_thread_id"`
			} `json:"message"`
		} `json:"callback_query"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0
	}
	if raw.Message != nil {
		return raw.Message.MessageThreadID
	}
	if raw.CallbackQuery != nil && raw.CallbackQuery.Message != nil {
		return raw.CallbackQuery.Message.MessageThreadID
	}
	return 0
}

// Send implements delivery.Sender, classifying Bot API failures into the
// permanent/transient taxonomy the scheduler acts on.
func (b *Bot) Send(dest delivery.Destination, text string) error {
	if err := b.sendMessage(dest, text, nil); err != nil {
		return classifySendError(err)
	}
	return nil
}

// sendMessage goes through MakeRequest so message_thread_id can be set:
// tgbotapi v5 predates forum topics, its typed configs cannot carry it.
// A non-nil keyboard is attached as reply_markup.
func (b *Bot) sendMessage(dest delivery.Destination, text string, keyboard any) error {
	params, err := messageParams(dest, text, keyboard)
	if err != nil {
		return err
	}
	_, err = b.api.MakeRequest("sendMessage", params)
	return err
}

func messageParams(dest delivery.Destination, text string, keyboard any) (tgbotapi.Params, error) {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", dest.ChatID)
	params["text"] = text
	params["parse_mode"] = "HTML"
	params.AddNonZero("message_thread_id", dest.ThreadID)
	if keyboard != nil {
		if err := params.AddInterface("reply_markup", keyboard); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// Маркеры безвозвратно недоступных чатов в ответах Bot API.
var unreachableMarkers = []string{
	"bot was blocked",
	"bot was kicked",
	"chat not found",
	"user is deactivated",
	"the group chat was deleted",
}

func classifySendError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusForbidden {
			return delivery.Unreachable(err)
		}
		msg := strings.ToLower(apiErr.Message)
		for _, marker := range unreachableMarkers {
			if strings.Contains(msg, marker) {
				return delivery.Unreachable(err)
			}
		}
	}
	return delivery.Transient(err)
}

func (b *Bot) SendMessage(chatID int64, threadID int, text string) error {
	return b.Send(delivery.Destination{ChatID: chatID, ThreadID: threadID}, text)
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, threadID int, text string, keyboard any) error {
	return b.sendMessage(delivery.Destination{ChatID: chatID, ThreadID: threadID}, text, keyboard)
}

// sendReply renders a conversation reply, attaching its choices as an
// inline keyboard when present.
func (b *Bot) sendReply(chatID int64, threadID int, reply *conversation.Reply) {
	if reply == nil {
		return
	}

	var err error
	if len(reply.Choices) > 0 {
		err = b.SendMessageWithKeyboard(chatID, threadID, reply.Text, choicesKeyboard(reply.Choices))
	} else {
		err = b.SendMessage(chatID, threadID, reply.Text)
	}
	if err != nil {
		log.Printf("Error sending reply to chat %d: %v", chatID, err)
	}
}
