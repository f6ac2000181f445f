package services

// Глобальная переменная для сервиса уведомлений
var GlobalNotificationService *NotificationService

// GetNotificationService возвращает глобальный сервис уведомлений
func GetNotificationService() *NotificationService {
	return GlobalNotificationService
}

// SetNotificationService устанавливает глобальный сервис уведомлений
func SetNotificationService(service *NotificationService) {
	GlobalNotificationService = service
}

// Глобальная переменная для сервиса кэширования
var GlobalCacheService *CacheService

// GetCacheService возвращает глобальный сервис кэширования
func GetCacheService() *CacheService {
	return GlobalCacheService
}

// SetCacheService устанавливает глобальный сервис кэширования
func SetCacheService(service *CacheService) {
	GlobalCacheService = service
}
