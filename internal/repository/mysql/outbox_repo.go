package mysql

import (
	"context"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func (r *OutboxRepository) Insert(ctx context.Context, ev *model.EventOutbox) error {
	return translate(r.DB.WithContext(ctx).Create(ev).Error)
}

// List outbox查询，失败的记录在重试上限内继续投递
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	if err := r.DB.WithContext(ctx).
		Where("status IN ? AND retry < ?", []int8{model.OutboxPending, model.OutboxFailed}, repository.MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// RetryUpdate outbox记录消息失败重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return translate(r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id=?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error)
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return translate(r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id=?", id).
		Update("status", model.OutboxSent).Error)
}
