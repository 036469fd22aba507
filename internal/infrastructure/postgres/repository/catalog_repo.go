package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/otpgate/activation-service/internal/cache"
	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/mappers"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

const catalogCacheTTL = 5 * time.Minute

// DefaultCatalogRepository reads provider/service profiles, with a
// read-through cache in front of the table. Cache failures are logged and
// fall through to the database.
type DefaultCatalogRepository struct {
	DB    *gorm.DB
	Cache cache.Cache
}

func NewDefaultCatalogRepository(db *gorm.DB, c cache.Cache) *DefaultCatalogRepository {
	return &DefaultCatalogRepository{DB: db, Cache: c}
}

func (r *DefaultCatalogRepository) GetServerConfig(serverID string) (*domain.ServerConfig, error) {
	var cached domain.ServerConfig
	if r.cacheGet("server:"+serverID, &cached) {
		return &cached, nil
	}

	var serverModel models.ServerConfigModel
	if err := r.DB.First(&serverModel, "id = ?", serverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrServerNotFound
		}
		return nil, err
	}

	server := mappers.ToDomainServerConfig(&serverModel)
	r.cacheSet("server:"+serverID, server)
	return server, nil
}

func (r *DefaultCatalogRepository) GetServiceConfig(serviceID string) (*domain.ServiceConfig, error) {
	var cached domain.ServiceConfig
	if r.cacheGet("service:"+serviceID, &cached) {
		return &cached, nil
	}

	var serviceModel models.ServiceConfigModel
	if err := r.DB.First(&serviceModel, "id = ?", serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}

	service := mappers.ToDomainServiceConfig(&serviceModel)
	r.cacheSet("service:"+serviceID, service)
	return service, nil
}

func (r *DefaultCatalogRepository) cacheGet(key string, out any) bool {
	if r.Cache == nil {
		return false
	}
	val, err := r.Cache.Get(context.Background(), key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (r *DefaultCatalogRepository) cacheSet(key string, value any) {
	if r.Cache == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.Cache.Set(context.Background(), key, string(encoded), catalogCacheTTL); err != nil {
		slog.Warn("catalog cache set failed", "key", key, "error", err.Error())
	}
}
