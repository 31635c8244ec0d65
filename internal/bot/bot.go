package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/analyzer"
	"github.com/xaenox/taskmind/internal/models"
	"github.com/xaenox/taskmind/internal/storage"
)

// Bot ingests Telegram chat messages as context entries: every inbound
// message is analyzed and stored so later task analyses can link to it.
type Bot struct {
	api      *tgbotapi.BotAPI
	storage  storage.Storage
	analyzer *analyzer.ContextAnalyzer
	logger   *zap.Logger
}

func New(token string, store storage.Storage, contextAnalyzer *analyzer.ContextAnalyzer, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		storage:  store,
		analyzer: contextAnalyzer,
		logger:   logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if content == "" {
		return
	}

	insight := b.analyzer.ProcessEntry(ctx, content, "chat")

	entry := &models.ContextEntry{
		ID:             uuid.New().String(),
		Content:        content,
		SourceType:     "chat",
		Sender:         message.From.UserName,
		Timestamp:      message.Time(),
		Keywords:       insight.Keywords,
		SentimentScore: insight.SentimentScore,
		UrgencyLevel:   insight.UrgencyLevel,
		Insight:        insight,
	}

	if err := b.storage.CreateContextEntry(ctx, entry); err != nil {
		b.logger.Error("Failed to save context entry",
			zap.Error(err),
			zap.String("entry_id", entry.ID),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your message. Please try again.")
		return
	}

	b.sendInsightResponse(message.Chat.ID, message.MessageID, entry)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "recent":
		b.handleRecent(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to TaskMind! 📋
Send me any message — chat snippets, email excerpts, notes — and I'll analyze it for keywords, urgency and deadlines.

Your messages become context that sharpens task prioritization.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/recent - Show your recent context entries

Just send any text and I'll extract:
- Keywords
- Urgency level (1-10)
- Sentiment
- Mentioned dates and deadlines`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleRecent(ctx context.Context, message *tgbotapi.Message) {
	since := time.Now().AddDate(0, 0, -7)
	entries, err := b.storage.ListContextEntries(ctx, since)
	if err != nil {
		b.logger.Error("Failed to get recent context entries",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your recent entries.")
		return
	}

	if len(entries) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any context entries yet.")
		return
	}
	if len(entries) > 5 {
		entries = entries[:5]
	}

	response := "*Your recent context entries:*\n\n"
	for _, entry := range entries {
		response += fmt.Sprintf("_%s_\n", escapeMarkdown(entry.Content))
		response += fmt.Sprintf("Urgency: %d/10\n", entry.UrgencyLevel)
		if len(entry.Keywords) > 0 {
			tags := make([]string, len(entry.Keywords))
			for i, keyword := range entry.Keywords {
				tags[i] = "#" + escapeMarkdown(strings.ReplaceAll(keyword, " ", "_"))
			}
			response += fmt.Sprintf("Keywords: %s\n", strings.Join(tags, " "))
		}
		response += "\n"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, response)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send recent entries message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) sendInsightResponse(chatID int64, replyToID int, entry *models.ContextEntry) {
	formattedKeywords := make([]string, len(entry.Keywords))
	for i, keyword := range entry.Keywords {
		formattedKeywords[i] = escapeMarkdown("#" + strings.ReplaceAll(keyword, " ", "_"))
	}

	text := fmt.Sprintf("*Urgency:* %d/10\n", entry.UrgencyLevel)
	if len(formattedKeywords) > 0 {
		text += fmt.Sprintf("*Keywords:* %s\n", strings.Join(formattedKeywords, " "))
	}
	if entry.Insight != nil && entry.Insight.HasDeadlineMention {
		text += "*Deadline mentioned:* yes\n"
	}
	if entry.Insight != nil && entry.Insight.AIAnalysis.Annotation != nil {
		text += fmt.Sprintf("\n*Topic:* %s", escapeMarkdown(entry.Insight.AIAnalysis.Annotation.Topic))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send insight response",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// Escape special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
