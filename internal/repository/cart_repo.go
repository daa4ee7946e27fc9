package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
)

// CartBindingRepository 购物车绑定仓储接口
type CartBindingRepository interface {
	GetByUser(ctx context.Context, subject string) (*model.CartBinding, error)
	Bind(ctx context.Context, subject, cartID string) error
	Unbind(ctx context.Context, subject string) error
	UnbindIfCurrent(ctx context.Context, subject, cartID string) (bool, error)
}

type cartBindingRepo struct {
	db *gorm.DB
}

// NewCartBindingRepository 创建购物车绑定仓储
func NewCartBindingRepository(db *gorm.DB) CartBindingRepository {
	return &cartBindingRepo{db: db}
}

// GetByUser 没有绑定时返回 nil, nil
func (r *cartBindingRepo) GetByUser(ctx context.Context, subject string) (*model.CartBinding, error) {
	var b model.CartBinding
	err := r.db.WithContext(ctx).Where("user_subject = ?", subject).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Bind 绑定或替换用户的购物车
func (r *cartBindingRepo) Bind(ctx context.Context, subject, cartID string) error {
	b := &model.CartBinding{UserSubject: subject, CartID: cartID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"cart_id", "updated_at", "updated_by"}),
	}).Create(b).Error
}

// Unbind 物理删除，唯一索引不能留软删记录
func (r *cartBindingRepo) Unbind(ctx context.Context, subject string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("user_subject = ?", subject).
		Delete(&model.CartBinding{}).Error
}

// UnbindIfCurrent 仅当仍绑定在 cartID 上时解绑，避免误删已被替换的新购物车
func (r *cartBindingRepo) UnbindIfCurrent(ctx context.Context, subject, cartID string) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("user_subject = ? AND cart_id = ?", subject, cartID).
		Delete(&model.CartBinding{})
	return res.RowsAffected > 0, res.Error
}
