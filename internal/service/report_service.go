package service

import (
	"context"
	"errors"
	"time"

	"Neighbor_Board/internal/config"
	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"go.uber.org/zap"
)

// ReportService 举报聚合：按不同举报人计数，达到阈值自动暂停或下架
type ReportService struct {
	store      repository.Store
	thresholds config.Moderation
	log        *zap.Logger
	now        func() time.Time
}

type ReportResult struct {
	Report            model.Report   `json:"report"`
	AdStatus          model.AdStatus `json:"ad_status"`
	DistinctReporters int64          `json:"distinct_reporters"`
}

// NewReportService 阈值在启动时校验一次
func NewReportService(store repository.Store, thresholds config.Moderation, log *zap.Logger) (*ReportService, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &ReportService{store: store, thresholds: thresholds, log: log, now: time.Now}, nil
}

func (s *ReportService) SubmitReport(ctx context.Context, adID, reporterID uint64, reason model.ReportReason) (*ReportResult, error) {
	if !reason.Valid() {
		return nil, invalid("unknown report reason %q", reason)
	}
	var out *ReportResult
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := r.Ads.FindByIDForUpdate(ctx, adID)
		if err != nil {
			return notFound(err, "ad")
		}
		if err = requireMember(ctx, r, ad.CommunityID, reporterID); err != nil {
			return err
		}

		exists, err := r.Reports.Exists(ctx, ad.ID, reporterID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateReport
		}
		report := &model.Report{AdID: ad.ID, ReporterID: reporterID, Reason: reason}
		if err = r.Reports.Create(ctx, report); err != nil {
			// 并发下唯一索引兜底
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateReport
			}
			return err
		}

		// 同一事务内重新计数，避免阈值判断读到旧值
		count, err := r.Reports.CountDistinctReporters(ctx, ad.ID)
		if err != nil {
			return err
		}
		if err = emit(ctx, r, model.EventAdReported, ad.CommunityID, reporterID, ad.ID,
			map[string]any{"reason": reason, "distinct_reporters": count}); err != nil {
			return err
		}
		if err = s.apply(ctx, r, ad, count); err != nil {
			return err
		}
		out = &ReportResult{Report: *report, AdStatus: ad.Status, DistinctReporters: count}
		return nil
	})
	return out, err
}

// apply 阈值单调：REMOVED 之后不再变化，CLOSED 的广告不会被重新打开
func (s *ReportService) apply(ctx context.Context, r *repository.Repos, ad *model.Ad, count int64) error {
	switch {
	case count >= int64(s.thresholds.RemoveThreshold):
		if ad.Status == model.AdStatusRemoved {
			return nil
		}
		ad.Status = model.AdStatusRemoved
		ad.SuspendedByReportsAt = nil
		if err := r.Ads.UpdateStatus(ctx, ad.ID, ad.Status, nil); err != nil {
			return err
		}
		s.log.Info("ad removed by reports", zap.Uint64("ad_id", ad.ID), zap.Int64("reporters", count))
		return emit(ctx, r, model.EventAdRemoved, ad.CommunityID, ad.UserID, ad.ID, map[string]any{"distinct_reporters": count})

	case count >= int64(s.thresholds.SuspendThreshold):
		// 生命周期没有 CLOSED → PAUSED 的边，关闭的广告只可能被 REMOVED 覆盖
		if ad.Status == model.AdStatusRemoved || ad.Status == model.AdStatusClosed {
			return nil
		}
		at := s.now()
		ad.Status = model.AdStatusPaused
		ad.SuspendedByReportsAt = &at
		if err := r.Ads.UpdateStatus(ctx, ad.ID, ad.Status, &at); err != nil {
			return err
		}
		s.log.Info("ad suspended by reports", zap.Uint64("ad_id", ad.ID), zap.Int64("reporters", count))
		return emit(ctx, r, model.EventAdSuspended, ad.CommunityID, ad.UserID, ad.ID, map[string]any{"distinct_reporters": count})
	}
	return nil
}
