package services

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/smtp"
	"time"

	"backend_fleetmaint/config"
	"backend_fleetmaint/models"

	"gorm.io/gorm"
)

// EmailAttachment представляет вложение письма
type EmailAttachment struct {
	Name string
	Data []byte
}

// NotificationService отправляет уведомления по email и Telegram
// с журналированием и повторными попытками
type NotificationService struct {
	DB  *gorm.DB
	cfg *config.Config

	telegramClient *TelegramClient
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{DB: db, cfg: cfg}
}

// getTelegramClient лениво создает Telegram клиент по токену из конфигурации
func (s *NotificationService) getTelegramClient() (*TelegramClient, error) {
	if s.telegramClient != nil {
		return s.telegramClient, nil
	}

	token := s.cfg.External.TelegramBotToken
	if token == "" {
		return nil, fmt.Errorf("токен Telegram бота не настроен")
	}

	client, err := NewTelegramClient(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram клиента: %w", err)
	}

	s.telegramClient = client
	return client, nil
}

// SendNotification отправляет уведомление по шаблону (type, channel)
func (s *NotificationService) SendNotification(notificationType, channel, recipient string, templateData map[string]interface{}, relatedID *uint, relatedType string, userID *uint, attachments ...EmailAttachment) error {
	// Получаем шаблон уведомления
	tmpl, err := s.getNotificationTemplate(notificationType, channel)
	if err != nil {
		return fmt.Errorf("шаблон не найден: %w", err)
	}

	// Рендерим шаблон
	subject, message, err := s.renderTemplate(tmpl, templateData)
	if err != nil {
		return fmt.Errorf("ошибка рендеринга шаблона: %w", err)
	}

	// Отправляем уведомление
	return s.sendNotificationWithTemplate(tmpl, recipient, subject, message, relatedID, relatedType, userID, attachments)
}

// getNotificationTemplate получает активный шаблон уведомления
func (s *NotificationService) getNotificationTemplate(notificationType, channel string) (*models.NotificationTemplate, error) {
	var tmpl models.NotificationTemplate
	err := s.DB.Where("type = ? AND channel = ? AND is_active = true",
		notificationType, channel).First(&tmpl).Error
	return &tmpl, err
}

// renderTemplate рендерит шаблон с данными
func (s *NotificationService) renderTemplate(tmpl *models.NotificationTemplate, data map[string]interface{}) (string, string, error) {
	// Рендерим тему (subject)
	var subject string
	if tmpl.Subject != "" {
		subjectTmpl, err := template.New("subject").Parse(tmpl.Subject)
		if err != nil {
			return "", "", fmt.Errorf("ошибка парсинга темы: %w", err)
		}

		var subjectBuf bytes.Buffer
		if err := subjectTmpl.Execute(&subjectBuf, data); err != nil {
			return "", "", fmt.Errorf("ошибка рендеринга темы: %w", err)
		}
		subject = subjectBuf.String()
	}

	// Рендерим сообщение
	messageTmpl, err := template.New("message").Parse(tmpl.Template)
	if err != nil {
		return "", "", fmt.Errorf("ошибка парсинга шаблона: %w", err)
	}

	var messageBuf bytes.Buffer
	if err := messageTmpl.Execute(&messageBuf, data); err != nil {
		return "", "", fmt.Errorf("ошибка рендеринга сообщения: %w", err)
	}

	return subject, messageBuf.String(), nil
}

// sendNotificationWithTemplate отправляет уведомление и фиксирует результат в логе
func (s *NotificationService) sendNotificationWithTemplate(tmpl *models.NotificationTemplate, recipient, subject, message string, relatedID *uint, relatedType string, userID *uint, attachments []EmailAttachment) error {
	// Создаем запись в логе
	notificationLog := models.NotificationLog{
		Type:        tmpl.Type,
		Channel:     tmpl.Channel,
		Recipient:   recipient,
		Subject:     subject,
		Message:     message,
		Status:      "pending",
		RelatedID:   relatedID,
		RelatedType: relatedType,
		UserID:      userID,
		TemplateID:  &tmpl.ID,
	}

	// Пытаемся отправить уведомление
	var err error
	switch tmpl.Channel {
	case models.NotificationChannelTelegram:
		err = s.sendTelegramNotification(recipient, message)
	case models.NotificationChannelEmail:
		err = s.sendEmailNotification(recipient, subject, message, attachments)
	default:
		err = fmt.Errorf("неподдерживаемый канал уведомлений: %s", tmpl.Channel)
	}

	// Обновляем статус в логе
	if err != nil {
		notificationLog.Status = "failed"
		notificationLog.ErrorMessage = err.Error()
		notificationLog.AttemptCount = 1

		// Планируем повторную попытку
		if tmpl.RetryAttempts > 0 {
			notificationLog.Status = "retry"
			nextRetry := time.Now().Add(5 * time.Minute)
			notificationLog.NextRetryAt = &nextRetry
		}
	} else {
		notificationLog.Status = "sent"
		now := time.Now()
		notificationLog.SentAt = &now
	}

	// Сохраняем лог
	s.DB.Create(&notificationLog)

	return err
}

// sendTelegramNotification отправляет уведомление через Telegram
func (s *NotificationService) sendTelegramNotification(recipient, message string) error {
	client, err := s.getTelegramClient()
	if err != nil {
		return fmt.Errorf("ошибка получения Telegram клиента: %w", err)
	}

	if recipient == "" {
		recipient = s.cfg.External.TelegramChatID
	}

	_, err = client.SendMessage(recipient, message)
	return err
}

// sendEmailNotification отправляет email, при наличии вложений — как
// multipart/mixed с base64-кодированием
func (s *NotificationService) sendEmailNotification(recipient, subject, message string, attachments []EmailAttachment) error {
	smtpCfg := s.cfg.External.SMTP
	if smtpCfg.Host == "" {
		return fmt.Errorf("SMTP сервер не настроен")
	}

	auth := smtp.PlainAuth("", smtpCfg.User, smtpCfg.Password, smtpCfg.Host)
	msg := buildEmailMessage(smtpCfg.From, recipient, subject, message, attachments)
	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)

	if smtpCfg.TLS && smtpCfg.Port == 465 {
		// Прямое TLS подключение
		tlsConfig := &tls.Config{
			InsecureSkipVerify: false,
			ServerName:         smtpCfg.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS подключения: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, smtpCfg.Host)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
		defer client.Quit()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		if err = client.Mail(smtpCfg.From); err != nil {
			return fmt.Errorf("ошибка установки отправителя: %w", err)
		}

		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("ошибка установки получателя: %w", err)
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("ошибка получения writer: %w", err)
		}

		if _, err = w.Write(msg); err != nil {
			return fmt.Errorf("ошибка записи сообщения: %w", err)
		}

		if err = w.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия writer: %w", err)
		}

		return nil
	}

	// Обычный SMTP (STARTTLS выполняет сама библиотека при поддержке сервером)
	if err := smtp.SendMail(addr, auth, smtpCfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("ошибка отправки email: %w", err)
	}

	return nil
}

// buildEmailMessage собирает MIME-сообщение письма
func buildEmailMessage(from, to, subject, body string, attachments []EmailAttachment) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(body)
		return buf.Bytes()
	}

	boundary := "fleetmaint-mail-boundary"
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", boundary))
	buf.WriteString("\r\n")

	// Тело письма
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	// Вложения
	for _, att := range attachments {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString("Content-Type: application/octet-stream\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", att.Name))
		buf.WriteString("\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// Переносим base64 по 76 символов
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return buf.Bytes()
}

// SendFailureReportCreated уведомляет руководителей о новом отчете об отказе
func (s *NotificationService) SendFailureReportCreated(report *models.FailureReport) error {
	equipmentName := ""
	if report.Equipment != nil {
		equipmentName = report.Equipment.Name
	}

	criticality := "Обычный"
	if report.IsCritical {
		criticality = "Критический"
	}

	templateData := map[string]interface{}{
		"Report":      report,
		"Equipment":   equipmentName,
		"Criticality": criticality,
	}

	// Рассылаем всем активным руководителям
	var supervisors []models.User
	if err := s.DB.Where("role = ? AND is_active = true", models.RoleSupervisor).Find(&supervisors).Error; err != nil {
		return fmt.Errorf("не удалось получить список руководителей: %w", err)
	}

	var lastErr error
	for i := range supervisors {
		if supervisors[i].Email == "" {
			continue
		}
		err := s.SendNotification(models.NotificationTypeFailureReportCreated,
			models.NotificationChannelEmail, supervisors[i].Email, templateData,
			&report.ID, "failure_report", &supervisors[i].ID)
		if err != nil {
			log.Printf("❌ Не удалось уведомить руководителя %s: %v", supervisors[i].Username, err)
			lastErr = err
		}
	}

	// Дублируем критические отказы в общий Telegram канал
	if report.IsCritical && s.cfg.External.TelegramChatID != "" {
		err := s.SendNotification(models.NotificationTypeFailureReportCreated,
			models.NotificationChannelTelegram, s.cfg.External.TelegramChatID, templateData,
			&report.ID, "failure_report", nil)
		if err != nil {
			log.Printf("❌ Не удалось отправить Telegram уведомление об отказе: %v", err)
		}
	}

	return lastErr
}

// SendWorkOrderFinished уведомляет руководителя актива о завершении наряда,
// прикладывая отчетные документы
func (s *NotificationService) SendWorkOrderFinished(order *models.WorkOrder, recipient *models.User, attachments []EmailAttachment) error {
	systemName := ""
	assetName := ""
	if order.System != nil {
		systemName = order.System.Name
		if order.System.Asset != nil {
			assetName = order.System.Asset.Name
		}
	}

	templateData := map[string]interface{}{
		"Order":  order,
		"System": systemName,
		"Asset":  assetName,
	}

	return s.SendNotification(models.NotificationTypeWorkOrderFinished,
		models.NotificationChannelEmail, recipient.Email, templateData,
		&order.ID, "work_order", &recipient.ID, attachments...)
}

// SendMaintenanceDueDigest отправляет руководителю сводку проблемных маршрутов
func (s *NotificationService) SendMaintenanceDueDigest(recipient *models.User, lines []string) error {
	templateData := map[string]interface{}{
		"Supervisor": recipient.FullName(),
		"Lines":      lines,
		"Count":      len(lines),
	}

	return s.SendNotification(models.NotificationTypeMaintenanceDue,
		models.NotificationChannelEmail, recipient.Email, templateData,
		nil, "route", &recipient.ID)
}

// ProcessRetryNotifications повторно отправляет отложенные уведомления
func (s *NotificationService) ProcessRetryNotifications() error {
	var notifications []models.NotificationLog
	err := s.DB.Where("status = 'retry' AND next_retry_at <= ?", time.Now()).
		Preload("Template").Find(&notifications).Error
	if err != nil {
		return fmt.Errorf("ошибка получения уведомлений для повтора: %w", err)
	}

	for _, notification := range notifications {
		// Проверяем, не превышен ли лимит попыток
		if notification.Template != nil && notification.AttemptCount >= notification.Template.RetryAttempts {
			notification.Status = "failed"
			notification.ErrorMessage = "Превышен лимит попыток отправки"
			s.DB.Save(&notification)
			continue
		}

		// Пытаемся отправить снова (вложения при повторе не восстанавливаются)
		var err error
		switch notification.Channel {
		case models.NotificationChannelTelegram:
			err = s.sendTelegramNotification(notification.Recipient, notification.Message)
		case models.NotificationChannelEmail:
			err = s.sendEmailNotification(notification.Recipient, notification.Subject, notification.Message, nil)
		}

		// Обновляем статус
		notification.AttemptCount++
		if err != nil {
			notification.ErrorMessage = err.Error()
			if notification.Template != nil && notification.AttemptCount >= notification.Template.RetryAttempts {
				notification.Status = "failed"
			} else {
				// Планируем следующую попытку с нарастающей задержкой
				nextRetry := time.Now().Add(time.Duration(notification.AttemptCount*5) * time.Minute)
				notification.NextRetryAt = &nextRetry
			}
		} else {
			notification.Status = "sent"
			now := time.Now()
			notification.SentAt = &now
			notification.ErrorMessage = ""
		}

		s.DB.Save(&notification)
	}

	return nil
}

// GetNotificationLogs возвращает логи уведомлений
func (s *NotificationService) GetNotificationLogs(limit int, offset int, filters map[string]interface{}) ([]models.NotificationLog, int64, error) {
	query := s.DB.Model(&models.NotificationLog{})

	// Применяем фильтры
	if notificationType, ok := filters["type"].(string); ok && notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}
	if channel, ok := filters["channel"].(string); ok && channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if relatedType, ok := filters["related_type"].(string); ok && relatedType != "" {
		query = query.Where("related_type = ?", relatedType)
	}

	// Подсчитываем общее количество
	var total int64
	query.Count(&total)

	// Получаем записи с пагинацией
	var logs []models.NotificationLog
	err := query.Preload("Template").Preload("User").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error

	return logs, total, err
}

// GetNotificationStatistics возвращает статистику по уведомлениям
func (s *NotificationService) GetNotificationStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Общая статистика
	var total, sent, failed, pending int64
	s.DB.Model(&models.NotificationLog{}).Count(&total)
	s.DB.Model(&models.NotificationLog{}).Where("status = 'sent'").Count(&sent)
	s.DB.Model(&models.NotificationLog{}).Where("status = 'failed'").Count(&failed)
	s.DB.Model(&models.NotificationLog{}).Where("status = 'pending'").Count(&pending)

	stats["total"] = total
	stats["sent"] = sent
	stats["failed"] = failed
	stats["pending"] = pending

	// Статистика по каналам
	var channelStats []struct {
		Channel string `json:"channel"`
		Count   int64  `json:"count"`
	}
	s.DB.Model(&models.NotificationLog{}).
		Select("channel, COUNT(*) as count").
		Group("channel").
		Scan(&channelStats)

	stats["by_channel"] = channelStats

	// Статистика по типам
	var typeStats []struct {
		Type  string `json:"type"`
		Count int64  `json:"count"`
	}
	s.DB.Model(&models.NotificationLog{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Scan(&typeStats)

	stats["by_type"] = typeStats

	return stats, nil
}

// CreateDefaultTemplates создает шаблоны уведомлений по умолчанию
func (s *NotificationService) CreateDefaultTemplates() error {
	templates := []models.NotificationTemplate{
		{
			Name:        "Новый отчет об отказе (Email)",
			Type:        models.NotificationTypeFailureReportCreated,
			Channel:     models.NotificationChannelEmail,
			Subject:     "Отчет об отказе #{{.Report.ID}}: {{.Equipment}}",
			Template:    "<h2>Зарегистрирован отчет об отказе #{{.Report.ID}}</h2><p><b>Оборудование:</b> {{.Equipment}}</p><p><b>Уровень:</b> {{.Criticality}}</p><p>{{.Report.Description}}</p>",
			Description: "Уведомление руководителей о новом отчете об отказе",
		},
		{
			Name:        "Новый отчет об отказе (Telegram)",
			Type:        models.NotificationTypeFailureReportCreated,
			Channel:     models.NotificationChannelTelegram,
			Subject:     "",
			Template:    "🚨 <b>Отказ оборудования</b>\n\n🔧 {{.Equipment}}\n⚠️ Уровень: {{.Criticality}}\n\n{{.Report.Description}}",
			Description: "Уведомление о критическом отказе в общий канал",
		},
		{
			Name:        "Наряд завершен (Email)",
			Type:        models.NotificationTypeWorkOrderFinished,
			Channel:     models.NotificationChannelEmail,
			Subject:     "Завершен наряд #{{.Order.ID}} — {{.Asset}}",
			Template:    "<h2>Наряд #{{.Order.ID}} завершен</h2><p><b>Актив:</b> {{.Asset}}</p><p><b>Система:</b> {{.System}}</p><p>{{.Order.Description}}</p><p>Отчетные документы во вложении.</p>",
			Description: "Уведомление руководителя актива о завершении наряда",
		},
		{
			Name:        "Сводка по обслуживанию (Email)",
			Type:        models.NotificationTypeMaintenanceDue,
			Channel:     models.NotificationChannelEmail,
			Subject:     "Требуют внимания: {{.Count}} маршрутов обслуживания",
			Template:    "<h2>Маршруты, требующие внимания</h2><p>{{.Supervisor}}, по вашим активам:</p><ul>{{range .Lines}}<li>{{.}}</li>{{end}}</ul>",
			Description: "Ежедневная сводка проблемных маршрутов для руководителя",
		},
	}

	for _, tmpl := range templates {
		// Проверяем, не существует ли уже такой шаблон
		var existing models.NotificationTemplate
		err := s.DB.Where("type = ? AND channel = ?", tmpl.Type, tmpl.Channel).First(&existing).Error
		if err == nil {
			// Шаблон уже существует, пропускаем
			continue
		}

		// Создаем новый шаблон
		if err := s.DB.Create(&tmpl).Error; err != nil {
			log.Printf("Ошибка создания шаблона %s: %v", tmpl.Name, err)
		}
	}

	return nil
}
