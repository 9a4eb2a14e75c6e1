package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type TenantRepo interface {
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Tenant, error)
	EnsureDefault(ctx context.Context, tx *gorm.DB, slug, name, timezone string) (*types.Tenant, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	repoLog := baseLog.With("repo", "TenantRepo")
	return &tenantRepo{db: db, log: repoLog}
}

func (tr *tenantRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Tenant

	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// EnsureDefault creates the tenant for the slug if it does not exist yet.
// Registration hangs users off this row, so it runs once at startup.
func (tr *tenantRepo) EnsureDefault(ctx context.Context, tx *gorm.DB, slug, name, timezone string) (*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Tenant

	if err := transaction.WithContext(ctx).
		Where(types.Tenant{Slug: slug}).
		Attrs(types.Tenant{Name: name, Timezone: timezone}).
		FirstOrCreate(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
