package report

import (
	"context"
	"fmt"
	"strings"

	"consultlink.id/forum/internal/entity"
	contentRepo "consultlink.id/forum/internal/modules/content/repository"
	reportDto "consultlink.id/forum/internal/modules/report/dto"
	reportRepo "consultlink.id/forum/internal/modules/report/repository"
	userDto "consultlink.id/forum/internal/modules/user/dto"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	commonDto "consultlink.id/forum/pkg/dto"
	"consultlink.id/forum/pkg/ratelimiter"
	"consultlink.id/forum/pkg/validator"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ReportService interface {
	FileReport(ctx context.Context, reporterID uuid.UUID, req reportDto.FileReportRequest) (*reportDto.ReportResponse, error)
	ListReports(ctx context.Context, query reportDto.ListReportsQuery) (*reportDto.PaginatedReportsResponse, error)
}

type reportService struct {
	db          *gorm.DB
	repo        reportRepo.ReportRepository
	contentRepo contentRepo.ContentRepository
	cooldowns   *ratelimiter.Cooldowns
}

func NewReportService(db *gorm.DB, repo reportRepo.ReportRepository, contentRepo contentRepo.ContentRepository, cooldowns *ratelimiter.Cooldowns) ReportService {
	return &reportService{
		db:          db,
		repo:        repo,
		contentRepo: contentRepo,
		cooldowns:   cooldowns,
	}
}

var errAlreadyReported = fmt.Errorf("you have already reported this content: %w", apperror.ErrConflict)

func (s *reportService) FileReport(ctx context.Context, reporterID uuid.UUID, req reportDto.FileReportRequest) (*reportDto.ReportResponse, error) {
	targetType, err := entity.ParseContentType(req.TargetType)
	if err != nil {
		return nil, fmt.Errorf("invalid target type: %w", apperror.ErrInvalidInput)
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("invalid target id format: %w", apperror.ErrInvalidInput)
	}
	reason := strings.TrimSpace(req.Reason)
	if err := validator.Var("Reason", reason, "min=10,max=500"); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	target := entity.Target{ID: targetID, Type: targetType}

	release, err := s.cooldowns.Acquire(ctx, reporterID, ratelimiter.ScopeReport)
	if err != nil {
		return nil, err
	}

	report := &entity.Report{
		ReporterID: reporterID,
		TargetID:   target.ID,
		TargetType: target.Type,
		Reason:     reason,
		Status:     entity.ReportPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the target row lock serialises duplicate attempts from the same reporter
		content := s.contentRepo.WithTx(tx)
		subject, err := content.LockTarget(ctx, target)
		if err != nil {
			if database.IsNotFound(err) {
				return fmt.Errorf("target not found: %w", apperror.ErrNotFound)
			}
			return err
		}
		if subject.IsDeleted {
			return fmt.Errorf("target not found: %w", apperror.ErrNotFound)
		}

		reports := s.repo.WithTx(tx)
		exists, err := reports.Exists(ctx, reporterID, target)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyReported
		}

		if err := reports.Create(ctx, report); err != nil {
			if database.IsDuplicateKey(err) {
				return errAlreadyReported
			}
			return err
		}

		return content.IncrementReportCount(ctx, target)
	})
	if err != nil {
		release()
		return nil, err
	}

	log.WithFields(log.Fields{
		"report_id":   report.ID,
		"reporter_id": reporterID,
		"target":      target.String(),
	}).Info("report filed")

	res := toReportResponse(report)
	res.Reporter = commonDto.AuthorResponse{ID: reporterID}
	return &res, nil
}

func (s *reportService) ListReports(ctx context.Context, query reportDto.ListReportsQuery) (*reportDto.PaginatedReportsResponse, error) {
	offset := query.Normalize()

	status := entity.ReportStatus(query.Status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("invalid report status: %w", apperror.ErrInvalidInput)
	}

	reports, total, err := s.repo.FindAll(ctx, status, offset, query.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]reportDto.ReportResponse, 0, len(reports))
	for _, r := range reports {
		data = append(data, toReportResponse(r))
	}

	return &reportDto.PaginatedReportsResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func toReportResponse(r *entity.Report) reportDto.ReportResponse {
	res := reportDto.ReportResponse{
		ID:         r.ID,
		Reporter:   userDto.NewAuthorResponse(r.Reporter),
		TargetID:   r.TargetID,
		TargetType: string(r.TargetType),
		Reason:     r.Reason,
		Status:     string(r.Status),
		ReviewedAt: commonDto.FormatTimePtr(r.ReviewedAt),
		CreatedAt:  commonDto.FormatTime(r.CreatedAt),
	}
	if r.Reviewer != nil {
		reviewer := userDto.NewAuthorResponse(*r.Reviewer)
		res.ReviewedBy = &reviewer
	}
	return res
}
