package controller

import (
	"context"

	"github.com/Freeeeeet/clinic_bot/internal/config"
	"github.com/Freeeeeet/clinic_bot/internal/controller/handlers"
	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/schedule"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

// telegramSender реализует handlers.Sender поверх go-telegram/bot
type telegramSender struct {
	bot *bot.Bot
}

func (s *telegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func (s *telegramSender) SendPhoto(ctx context.Context, chatID int64, fileRef, caption string) error {
	_, err := s.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: fileRef},
		Caption: caption,
	})
	return err
}

func NewBotController(
	botInstance *bot.Bot,
	cfg *config.Config,
	ledger *service.LedgerService,
	doctors *service.DoctorService,
	sessions *state.Manager,
	gate *schedule.Gate,
	scheduler *schedule.Scheduler,
	logger *zap.Logger,
) *BotController {
	// Создаём движок диалога поверх телеграм-адаптера
	cmdHandlers := handlers.NewHandlers(
		ledger,
		doctors,
		sessions,
		gate,
		scheduler,
		&telegramSender{bot: botInstance},
		cfg.AdminIDs,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// NewNotifier адаптер отправки для планировщика поверх того же бота
func NewNotifier(botInstance *bot.Bot) schedule.Notifier {
	return &telegramSender{bot: botInstance}
}

// RegisterHandlers регистрирует обработчики сообщений
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Весь диалог ведёт машина состояний, поэтому один обработчик на всё
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handleUpdate)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// handleUpdate переводит телеграм-обновление в транспортно-независимое событие
func (c *BotController) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	ev := handlers.Event{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if msg.From != nil {
		ev.SenderID = msg.From.ID
	}

	// Чек об оплате приходит фотографией, берём самый крупный вариант
	if len(msg.Photo) > 0 {
		ev.PhotoRef = msg.Photo[len(msg.Photo)-1].FileID
		if ev.Text == "" {
			ev.Text = msg.Caption
		}
	}

	if ev.Text == "" && ev.PhotoRef == "" {
		return
	}

	ev.IsAdmin = c.handlers.IsAdmin(ev.SenderID)
	c.handlers.Handle(ctx, ev)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start the clinic bot"},
		{Command: "new", Description: "📅 Book an appointment"},
		{Command: "doctors", Description: "👨‍⚕️ Our doctors"},
		{Command: "updateinfo", Description: "✏️ Update my details"},
		{Command: "cancel", Description: "❌ Cancel my booking"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
