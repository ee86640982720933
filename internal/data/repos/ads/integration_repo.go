package ads

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type IntegrationRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Integration, error)
	GetByAccount(dbc dbctx.Context, platform types.Platform, adAccountID string) (*types.Integration, error)
	// UpsertByAccount loads (or starts) the row for (platform, adAccountID),
	// applies mutate and saves it. A soft-deleted row is restored. A
	// concurrent insert of the same key is resolved by re-reading and
	// updating the winner's row.
	UpsertByAccount(dbc dbctx.Context, platform types.Platform, adAccountID string, mutate func(*types.Integration) error) (*types.Integration, error)
	ReplacePages(dbc dbctx.Context, integrationID uuid.UUID, pages []types.LinkedPage) ([]types.LinkedPage, error)
	Update(dbc dbctx.Context, in *types.Integration) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	SetPageToken(dbc dbctx.Context, integrationID uuid.UUID, pageID, token string) error
	ClearPageTokens(dbc dbctx.Context, integrationID uuid.UUID) error
	ListExpiring(dbc dbctx.Context, now, until time.Time) ([]*types.Integration, error)
	ListEnabled(dbc dbctx.Context) ([]*types.Integration, error)
	ListAutoSync(dbc dbctx.Context) ([]*types.Integration, error)
}

type integrationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntegrationRepo(db *gorm.DB, baseLog *logger.Logger) IntegrationRepo {
	repoLog := baseLog.With("repo", "IntegrationRepo")
	return &integrationRepo{db: db, log: repoLog}
}

func preloadPages(db *gorm.DB) *gorm.DB {
	return db.Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("page_name ASC, page_id ASC") })
}

func (r *integrationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Integration, error) {
	var out types.Integration
	if err := preloadPages(dbc.DB(r.db)).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *integrationRepo) GetByAccount(dbc dbctx.Context, platform types.Platform, adAccountID string) (*types.Integration, error) {
	var out types.Integration
	err := preloadPages(dbc.DB(r.db)).
		Where("platform = ? AND ad_account_id = ?", platform, adAccountID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *integrationRepo) findUnscoped(tx *gorm.DB, platform types.Platform, adAccountID string) (*types.Integration, error) {
	var out types.Integration
	err := tx.Unscoped().
		Where("platform = ? AND ad_account_id = ?", platform, adAccountID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *integrationRepo) UpsertByAccount(dbc dbctx.Context, platform types.Platform, adAccountID string, mutate func(*types.Integration) error) (*types.Integration, error) {
	var out *types.Integration
	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		existing, err := r.findUnscoped(tx, platform, adAccountID)
		switch {
		case err == nil:
			out, err = r.applyAndSave(tx, existing, mutate)
			return err
		case err != ErrNotFound:
			return err
		}

		fresh := &types.Integration{Platform: platform, AdAccountID: adAccountID}
		if err := mutate(fresh); err != nil {
			return err
		}
		createErr := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(fresh).Error
		})
		if createErr == nil {
			out = fresh
			return nil
		}
		if !IsUniqueViolation(createErr) {
			return createErr
		}

		r.log.Info("integration insert raced, updating existing row", "platform", platform, "ad_account_id", adAccountID)
		existing, err = r.findUnscoped(tx, platform, adAccountID)
		if err != nil {
			return fmt.Errorf("re-read after conflict: %w", err)
		}
		out, err = r.applyAndSave(tx, existing, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *integrationRepo) applyAndSave(tx *gorm.DB, row *types.Integration, mutate func(*types.Integration) error) (*types.Integration, error) {
	row.DeletedAt = gorm.DeletedAt{}
	if err := mutate(row); err != nil {
		return nil, err
	}
	if err := tx.Unscoped().Omit(clause.Associations).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *integrationRepo) ReplacePages(dbc dbctx.Context, integrationID uuid.UUID, pages []types.LinkedPage) ([]types.LinkedPage, error) {
	out := make([]types.LinkedPage, 0, len(pages))
	seen := map[string]bool{}
	for _, p := range pages {
		if p.PageID == "" || seen[p.PageID] {
			continue
		}
		seen[p.PageID] = true
		p.ID = uuid.Nil
		p.IntegrationID = integrationID
		out = append(out, p)
	}

	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", integrationID).Delete(&types.LinkedPage{}).Error; err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *integrationRepo) Update(dbc dbctx.Context, in *types.Integration) error {
	return dbc.DB(r.db).Omit(clause.Associations).Save(in).Error
}

func (r *integrationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Integration{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *integrationRepo) SetPageToken(dbc dbctx.Context, integrationID uuid.UUID, pageID, token string) error {
	return dbc.DB(r.db).
		Model(&types.LinkedPage{}).
		Where("integration_id = ? AND page_id = ?", integrationID, pageID).
		Update("page_access_token", token).Error
}

func (r *integrationRepo) ClearPageTokens(dbc dbctx.Context, integrationID uuid.UUID) error {
	return dbc.DB(r.db).
		Model(&types.LinkedPage{}).
		Where("integration_id = ?", integrationID).
		Update("page_access_token", "").Error
}

func (r *integrationRepo) ListExpiring(dbc dbctx.Context, now, until time.Time) ([]*types.Integration, error) {
	var out []*types.Integration
	err := dbc.DB(r.db).
		Where("enabled = ?", true).
		Where("connection_status IN ?", []types.ConnectionStatus{types.StatusConnected, types.StatusExpired}).
		Where("token_expiry > ? AND token_expiry < ?", now, until).
		Order("token_expiry ASC").
		Find(&out).Error
	return out, err
}

func (r *integrationRepo) ListEnabled(dbc dbctx.Context) ([]*types.Integration, error) {
	var out []*types.Integration
	err := dbc.DB(r.db).Where("enabled = ?", true).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *integrationRepo) ListAutoSync(dbc dbctx.Context) ([]*types.Integration, error) {
	var out []*types.Integration
	err := dbc.DB(r.db).
		Where("enabled = ? AND auto_sync = ? AND connection_status = ?", true, true, types.StatusConnected).
		Find(&out).Error
	return out, err
}
