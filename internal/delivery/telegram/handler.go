package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/metrics"
	"github.com/yourusername/mobit-catalog/internal/usecase"
)

const (
	// maxHits caps the rows sent for one search
	maxHits = 10
	// Telegram rejects messages longer than 4096 characters
	maxMessageRunes = 4000
)

// sender is the part of the Bot API the handler replies through
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotHandler Telegram catalog search bot
type BotHandler struct {
	api     *tgbotapi.BotAPI
	sender  sender
	catalog usecase.CatalogUseCase
	search  usecase.SearchUseCase
	logger  *zap.Logger

	// chat -> catalog session
	sessions map[int64]string
	mu       sync.Mutex
}

// NewBotHandler connects to the Bot API
func NewBotHandler(
	token string,
	catalog usecase.CatalogUseCase,
	search usecase.SearchUseCase,
	logger *zap.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := newBotHandler(bot, catalog, search, logger)
	h.api = bot
	return h, nil
}

func newBotHandler(s sender, catalog usecase.CatalogUseCase, search usecase.SearchUseCase, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		sender:   s,
		catalog:  catalog,
		search:   search,
		logger:   logger,
		sessions: make(map[int64]string),
	}
}

// Start polls for updates until ctx is cancelled
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.Info("bot started", zap.String("username", h.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.api.GetUpdatesChan(u)
	defer h.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage routes a message to a command or a code search
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	if text := strings.TrimSpace(message.Text); text != "" {
		h.handleSearch(ctx, message.Chat.ID, text)
	}
}

// handleCommand dispatches bot commands
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start", "help":
		h.sendMessage(chatID, helpMessage)
	case "search":
		h.handleSearch(ctx, chatID, message.CommandArguments())
	case "list":
		h.handleListCommand(ctx, chatID)
	case "reload":
		h.handleReloadCommand(ctx, chatID)
	default:
		h.sendMessage(chatID, "Unknown command. Send /help for the list.")
	}
}

const helpMessage = `Catalog search

Send a product code, or part of one, to see matching rows and their photos.

/search <code> - search by product code
/list - the whole catalog as a table
/reload - re-read the catalog file`

// handleSearch replies with matching rows and their photos
func (h *BotHandler) handleSearch(ctx context.Context, chatID int64, query string) {
	sessionID, err := h.sessionFor(ctx, chatID)
	if err != nil {
		h.logger.Error("failed to open catalog session", zap.Int64("chat", chatID), zap.Error(err))
		h.sendMessage(chatID, "The catalog is not available right now.")
		return
	}

	result, err := h.search.Search(ctx, sessionID, query)
	if err != nil {
		h.logger.Error("search failed", zap.Int64("chat", chatID), zap.Error(err))
		h.sendMessage(chatID, "Search failed, please try again.")
		return
	}
	metrics.RecordSearch(string(result.State), "telegram")

	switch result.State {
	case entity.SearchPrompt:
		h.sendMessage(chatID, "Send a product code, e.g. /search 1001")
		return
	case entity.SearchNotFound:
		h.sendMessage(chatID, fmt.Sprintf("No product with a code containing %q.", result.Query))
		return
	}

	hits := result.Hits
	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	for _, hit := range hits {
		h.sendMessage(chatID, formatProduct(hit.Product))
		h.sendImages(chatID, hit.Images)
	}
	if extra := len(result.Hits) - len(hits); extra > 0 {
		h.sendMessage(chatID, fmt.Sprintf("%d more rows match %q. Narrow the search to see them.", extra, result.Query))
	}
}

func (h *BotHandler) sendImages(chatID int64, images []entity.ImageView) {
	for _, img := range images {
		if !img.Exists {
			h.sendMessage(chatID, fmt.Sprintf("Image not found: %s", img.Path))
			continue
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(img.Path))
		photo.Caption = img.Name
		if _, err := h.sender.Send(photo); err != nil {
			h.logger.Warn("failed to send photo", zap.String("path", img.Path), zap.Error(err))
			h.sendMessage(chatID, fmt.Sprintf("Could not send %s", img.Name))
		}
	}
}

// handleListCommand sends the catalog as a monospace table
func (h *BotHandler) handleListCommand(ctx context.Context, chatID int64) {
	sessionID, err := h.sessionFor(ctx, chatID)
	if err != nil {
		h.sendMessage(chatID, "The catalog is not available right now.")
		return
	}
	text, err := h.catalog.RenderText(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to render catalog", zap.Error(err))
		h.sendMessage(chatID, "Could not render the catalog.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "<pre>"+html.EscapeString(truncateString(text, maxMessageRunes))+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.Warn("failed to send catalog table", zap.Error(err))
	}
}

// handleReloadCommand re-reads the catalog file into the chat's session
func (h *BotHandler) handleReloadCommand(ctx context.Context, chatID int64) {
	sessionID, err := h.sessionFor(ctx, chatID)
	if err != nil {
		h.sendMessage(chatID, "The catalog is not available right now.")
		return
	}
	rows, err := h.catalog.Reload(ctx, sessionID)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("Reload failed: %v", err))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("Catalog reloaded: %d rows.", rows))
}

// sessionFor returns the chat's catalog session, opening a new one when
// there is none or the old one expired.
func (h *BotHandler) sessionFor(ctx context.Context, chatID int64) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.sessions[chatID]; ok {
		_, err := h.catalog.Session(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, entity.ErrSessionNotFound) {
			return "", err
		}
	}

	session, err := h.catalog.OpenSession(ctx)
	if err != nil {
		return "", err
	}
	// load notices are meant for the web page
	notices, _ := h.catalog.PopNotices(ctx, session.ID)
	for _, n := range notices {
		h.logger.Info("catalog notice", zap.Int64("chat", chatID), zap.String("level", string(n.Level)), zap.String("text", n.Text))
	}

	h.sessions[chatID] = session.ID
	return session.ID, nil
}

// sendMessage sends plain text
func (h *BotHandler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncateString(text, maxMessageRunes))
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func formatProduct(p entity.Product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 %s\n", nonEmpty(p.Code, "-"))
	fmt.Fprintf(&sb, "%s: %s\n", entity.ColumnLocation, nonEmpty(p.Location, "-"))
	fmt.Fprintf(&sb, "%s: %s", entity.ColumnDescription, nonEmpty(p.Description, "-"))
	if len(p.ImageRefs) == 0 {
		sb.WriteString("\nNo images.")
	}
	return sb.String()
}

func nonEmpty(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
