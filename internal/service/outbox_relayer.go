package service

import (
	"context"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

type Sender func(ctx context.Context, ob *model.EventOutbox) error

// OutboxRelayer 从 outbox 表读取事件交给 sender 投递
type OutboxRelayer struct {
	repo      repository.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(repo repository.OutboxRepository, sender Sender, batchSize int, interval time.Duration, log *zap.Logger) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{repo: repo, batchSize: batchSize, interval: interval, sender: sender, log: log}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send failed",
				zap.Uint64("id", ob.ID),
				zap.String("event_type", ob.EventType),
				zap.Int("retry", ob.Retry),
				zap.Error(err))
			if err = r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.Error("outbox retry update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox success update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// KafkaSender 按社区 id 分区，短暂失败在本轮内重试几次
func KafkaSender(p *pkg.KafkaProducer, log *zap.Logger) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		return retry.Do(
			func() error {
				return p.Send(ctx, pkg.MakeKeyFromID(ob.CommunityID), []byte(ob.Payload), map[string]string{
					"event_id":   ob.EventID,
					"event_type": ob.EventType,
				})
			},
			retry.Attempts(3),
			retry.Delay(100*time.Millisecond),
			retry.MaxDelay(2*time.Second),
			retry.MaxJitter(100*time.Millisecond),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				log.Debug("retrying kafka publish",
					zap.String("topic", p.Topic()),
					zap.Uint("attempt", n),
					zap.String("event_id", ob.EventID),
					zap.Error(err))
			}),
		)
	}
}

// LogSender 未配置 Kafka 时使用，只打印
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.EventOutbox) error {
		log.Info("outbox event",
			zap.String("event_id", ob.EventID),
			zap.String("event_type", ob.EventType),
			zap.Uint64("community_id", ob.CommunityID),
			zap.Uint64("user_id", ob.UserID),
			zap.String("payload", ob.Payload))
		return nil
	}
}
