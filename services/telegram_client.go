package services

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClient представляет клиент для работы с Telegram Bot API
type TelegramClient struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramClient создает новый экземпляр Telegram клиента
func NewTelegramClient(token string) (*TelegramClient, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram бота не задан")
	}

	// Создаем Bot API клиент
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram бота: %w", err)
	}

	// В продакшене отключаем debug
	bot.Debug = false

	log.Printf("✅ Telegram бот авторизован: %s", bot.Self.UserName)

	return &TelegramClient{bot: bot}, nil
}

// SendMessage отправляет сообщение в чат
func (tc *TelegramClient) SendMessage(chatID string, message string) (*tgbotapi.Message, error) {
	// Парсим chat ID
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("неверный chat ID: %s", chatID)
	}

	// Создаем сообщение
	msg := tgbotapi.NewMessage(chatIDInt, message)
	msg.ParseMode = tgbotapi.ModeHTML

	// Отправляем сообщение
	sentMsg, err := tc.bot.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки сообщения: %w", err)
	}

	return &sentMsg, nil
}

// SendDocument отправляет документ (например, PDF наряда) в чат
func (tc *TelegramClient) SendDocument(chatID string, fileName string, data []byte, caption string) error {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("неверный chat ID: %s", chatID)
	}

	doc := tgbotapi.NewDocument(chatIDInt, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = caption

	if _, err := tc.bot.Send(doc); err != nil {
		return fmt.Errorf("ошибка отправки документа: %w", err)
	}

	return nil
}

// GetBotInfo возвращает информацию о боте
func (tc *TelegramClient) GetBotInfo() (*tgbotapi.User, error) {
	return &tc.bot.Self, nil
}

// IsHealthy проверяет, работает ли бот
func (tc *TelegramClient) IsHealthy() bool {
	// Пробуем получить информацию о боте
	_, err := tc.bot.GetMe()
	return err == nil
}
