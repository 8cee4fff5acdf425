package database

import (
	"github.com/Posteriot/makalah-app-sub005/internal/adapter/repository"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Payment        domainRepo.PaymentRepository
	Credit         domainRepo.CreditRepository
	Subscription   domainRepo.SubscriptionRepository
	Quota          domainRepo.QuotaRepository
	User           domainRepo.UserRepository
	ProviderConfig domainRepo.ProviderConfigRepository
	WebhookEvent   domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Payment:        repository.NewPaymentRepository(db, logger),
		Credit:         repository.NewCreditRepository(db, logger),
		Subscription:   repository.NewSubscriptionRepository(db, logger),
		Quota:          repository.NewQuotaRepository(db, logger),
		User:           repository.NewUserRepository(db, logger),
		ProviderConfig: repository.NewProviderConfigRepository(db, logger),
		WebhookEvent:   repository.NewWebhookEventRepository(db, logger),
	}
}
