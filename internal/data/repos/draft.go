package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type DraftRepo interface {
	Create(dbc dbctx.Context, drafts []*types.CourseDraft) ([]*types.CourseDraft, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error)
	GetByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.CourseDraft, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// MergeGenerationMeta reads, mutates, and writes generation_metadata in
	// one short transaction.
	MergeGenerationMeta(dbc dbctx.Context, id uuid.UUID, mutate func(*types.GenerationMeta)) error
}

type draftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDraftRepo(db *gorm.DB, baseLog *logger.Logger) DraftRepo {
	return &draftRepo{db: db, log: baseLog.With("repo", "DraftRepo")}
}

func (r *draftRepo) Create(dbc dbctx.Context, drafts []*types.CourseDraft) ([]*types.CourseDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(drafts) == 0 {
		return []*types.CourseDraft{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *draftRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var draft types.CourseDraft
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) GetByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.CourseDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CourseDraft
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *draftRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.CourseDraft{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *draftRepo) MergeGenerationMeta(dbc dbctx.Context, id uuid.UUID, mutate func(*types.GenerationMeta)) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || mutate == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var draft types.CourseDraft
		if err := txx.Where("id = ?", id).First(&draft).Error; err != nil {
			return err
		}
		meta, err := draft.DecodeGenerationMeta()
		if err != nil {
			// Corrupt metadata should not block recording new state.
			meta = &types.GenerationMeta{}
		}
		mutate(meta)
		return txx.Model(&types.CourseDraft{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"generation_metadata": types.MustJSON(meta),
				"updated_at":          time.Now().UTC(),
			}).Error
	})
}
