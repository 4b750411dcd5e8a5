package mysql

import (
	"context"
	"errors"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 打开连接池；TranslateError 让唯一键冲突变成 gorm.ErrDuplicatedKey
func InitDB(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate 自动建表（开发阶段 OK）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Community{},
		&model.CommunityMember{},
		&model.CommunityAdmin{},
		&model.CommunityJoinRequest{},
		&model.Ad{},
		&model.AdImage{},
		&model.AdReaction{},
		&model.AdComment{},
		&model.CommentLike{},
		&model.Report{},
		&model.EventOutbox{},
	)
}

// Store 基于 gorm 的事务边界
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(r *repository.Repos) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	})
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &OutboxRepository{DB: s.DB}
}

func newRepos(tx *gorm.DB) *repository.Repos {
	return &repository.Repos{
		Ads:          &AdRepository{DB: tx},
		Assets:       &AdAssetRepository{DB: tx},
		Reports:      &ReportRepository{DB: tx},
		Communities:  &CommunityRepository{DB: tx},
		Members:      &CommunityMemberRepository{DB: tx},
		Admins:       &CommunityAdminRepository{DB: tx},
		JoinRequests: &JoinRequestRepository{DB: tx},
		Outbox:       &OutboxRepository{DB: tx},
	}
}

// translate 把 gorm 错误转换成仓储层错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
