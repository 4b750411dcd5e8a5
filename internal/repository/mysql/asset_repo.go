package mysql

import (
	"context"

	"Neighbor_Board/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdAssetRepository struct {
	DB *gorm.DB
}

func (r *AdAssetRepository) AddImages(ctx context.Context, adID uint64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	imgs := make([]model.AdImage, 0, len(urls))
	for i, u := range urls {
		imgs = append(imgs, model.AdImage{AdID: adID, URL: u, SortOrder: i})
	}
	return translate(r.DB.WithContext(ctx).Create(&imgs).Error)
}

func (r *AdAssetRepository) ListImages(ctx context.Context, adID uint64) ([]model.AdImage, error) {
	var list []model.AdImage
	err := r.DB.WithContext(ctx).Where("ad_id = ?", adID).Order("sort_order ASC").Find(&list).Error
	return list, translate(err)
}

// UpsertReaction 唯一(ad_id, user_id)，重复评分覆盖旧值
func (r *AdAssetRepository) UpsertReaction(ctx context.Context, adID, userID uint64, rating int) error {
	return translate(r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ad_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&model.AdReaction{AdID: adID, UserID: userID, Rating: rating}).Error)
}

func (r *AdAssetRepository) DeleteReaction(ctx context.Context, adID, userID uint64) error {
	return translate(r.DB.WithContext(ctx).
		Where("ad_id = ? AND user_id = ?", adID, userID).
		Delete(&model.AdReaction{}).Error)
}

func (r *AdAssetRepository) CreateComment(ctx context.Context, c *model.AdComment) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *AdAssetRepository) FindComment(ctx context.Context, id uint64) (*model.AdComment, error) {
	var c model.AdComment
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *AdAssetRepository) DeleteComment(ctx context.Context, id uint64) error {
	return translate(r.DB.WithContext(ctx).Delete(&model.AdComment{}, id).Error)
}

func (r *AdAssetRepository) AddCommentLike(ctx context.Context, commentID, userID uint64) error {
	return translate(r.DB.WithContext(ctx).Create(&model.CommentLike{CommentID: commentID, UserID: userID}).Error)
}

func (r *AdAssetRepository) DeleteCommentLike(ctx context.Context, commentID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&model.CommentLike{})
	return res.RowsAffected > 0, translate(res.Error)
}

func (r *AdAssetRepository) DeleteCommentLikes(ctx context.Context, commentID uint64) error {
	return translate(r.DB.WithContext(ctx).Where("comment_id = ?", commentID).Delete(&model.CommentLike{}).Error)
}

func (r *AdAssetRepository) DeleteCommentLikesByAd(ctx context.Context, adID uint64) error {
	sub := r.DB.Model(&model.AdComment{}).Select("id").Where("ad_id = ?", adID)
	return translate(r.DB.WithContext(ctx).Where("comment_id IN (?)", sub).Delete(&model.CommentLike{}).Error)
}

func (r *AdAssetRepository) DeleteCommentsByAd(ctx context.Context, adID uint64) error {
	return translate(r.DB.WithContext(ctx).Where("ad_id = ?", adID).Delete(&model.AdComment{}).Error)
}

func (r *AdAssetRepository) DeleteReactionsByAd(ctx context.Context, adID uint64) error {
	return translate(r.DB.WithContext(ctx).Where("ad_id = ?", adID).Delete(&model.AdReaction{}).Error)
}

func (r *AdAssetRepository) DeleteImagesByAd(ctx context.Context, adID uint64) error {
	return translate(r.DB.WithContext(ctx).Where("ad_id = ?", adID).Delete(&model.AdImage{}).Error)
}
