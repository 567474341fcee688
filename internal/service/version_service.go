package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// VersionService 版本管理服务
// Versions are members of the version dimension; this service owns their
// status attribute and the audit trail of status changes.
type VersionService struct {
	dims      repository.DimensionsRepository
	versions  repository.VersionsRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewVersionService 创建版本服务
func NewVersionService(dims repository.DimensionsRepository, versions repository.VersionsRepository, publisher events.Publisher, logger *zap.Logger) *VersionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &VersionService{dims: dims, versions: versions, publisher: publisher, logger: logger}
}

// maxVersionScan bounds the members read when filtering versions by status.
const maxVersionScan = 10000

// VersionItem 版本（前端格式）
type VersionItem struct {
	MemberItem
	VersionType   string  `json:"version_type"`
	Status        string  `json:"version_status"`
	IsBaseVersion bool    `json:"is_base_version"`
	BaseVersionID *string `json:"base_version_id,omitempty"`
}

func toVersionItem(v *domain.Version) VersionItem {
	return VersionItem{
		MemberItem:    toMemberItem(&v.Member),
		VersionType:   string(v.VersionType),
		Status:        string(v.Status),
		IsBaseVersion: v.IsBaseVersion,
		BaseVersionID: v.BaseVersionID,
	}
}

// CreateVersionRequest 创建版本请求
type CreateVersionRequest struct {
	UserID        string
	Name          string  `validate:"required,max=100"`
	Description   *string `validate:"omitempty,max=500"`
	VersionType   string  `validate:"required,oneof=budget forecast actual"`
	IsBaseVersion bool
	BaseVersionID *string
	Attributes    map[string]any
}

// CreateVersionResponse 创建版本响应
type CreateVersionResponse struct {
	ID         string `json:"id"`
	CopiedRows int    `json:"copied_rows"`
}

func (s *VersionService) getVersion(ctx context.Context, id string) (*domain.Version, error) {
	m, err := s.dims.GetMember(ctx, domain.DimensionVersion, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: version %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return domain.VersionFromMember(*m)
}

// CreateVersion creates a draft version. With a base version, the base's
// planned data is copied into the new version in the same transaction and
// the copied row count is reported.
func (s *VersionService) CreateVersion(ctx context.Context, req CreateVersionRequest) (*CreateVersionResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.VersionType = strings.ToLower(strings.TrimSpace(req.VersionType))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if existing, err := s.dims.GetMemberByBusinessID(ctx, domain.DimensionVersion, req.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: version %q", ErrDuplicateMember, req.Name)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check version name: %w", err)
	}

	if req.BaseVersionID != nil {
		if _, err := s.getVersion(ctx, *req.BaseVersionID); err != nil {
			return nil, fmt.Errorf("invalid base version: %w", err)
		}
	}

	attrs := map[string]any{}
	for k, v := range req.Attributes {
		attrs[k] = v
	}
	v := &domain.Version{
		Member: domain.DimensionMember{
			Type:        domain.DimensionVersion,
			BusinessID:  req.Name,
			Description: req.Description,
			Attributes:  attrs,
		},
		VersionType:   domain.VersionType(req.VersionType),
		Status:        domain.VersionDraft,
		IsBaseVersion: req.IsBaseVersion,
		BaseVersionID: req.BaseVersionID,
	}
	member := v.ApplyToMember()
	id, copied, err := s.versions.CreateVersion(ctx, &member, req.BaseVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	resp := &CreateVersionResponse{ID: id, CopiedRows: copied}

	s.logger.Info("Created version",
		zap.String("version_id", id),
		zap.String("name", req.Name),
		zap.String("version_type", req.VersionType),
		zap.Int("copied_rows", resp.CopiedRows),
	)
	payload := map[string]any{"name": req.Name, "version_type": req.VersionType, "copied_rows": resp.CopiedRows}
	if req.BaseVersionID != nil {
		payload["base_version_id"] = *req.BaseVersionID
	}
	s.publish(ctx, events.New(events.TypeVersionCreated, id, req.UserID, payload))
	return resp, nil
}

// GetVersion 查询版本
func (s *VersionService) GetVersion(ctx context.Context, id string) (*VersionItem, error) {
	v, err := s.getVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toVersionItem(v)
	return &item, nil
}

// ListVersionsRequest 查询版本列表请求
type ListVersionsRequest struct {
	Status string // 可选
	Search string
	Page   int
	Size   int
}

// ListVersions lists version members. A status filter is applied before
// paging, so it reads the whole version dimension.
func (s *VersionService) ListVersions(ctx context.Context, req ListVersionsRequest) ([]VersionItem, int, error) {
	if req.Status != "" && !domain.VersionStatus(req.Status).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown version status %q", ErrInvalidRequest, req.Status)
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 {
		req.Size = 100
	}

	page, size := req.Page, req.Size
	if req.Status != "" {
		page, size = 1, maxVersionScan
	}
	members, total, err := s.dims.ListMembers(ctx, domain.DimensionVersion, repository.DimensionFilter{Search: req.Search}, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list versions: %w", err)
	}

	items := make([]VersionItem, 0, len(members))
	for _, m := range members {
		v, err := domain.VersionFromMember(*m)
		if err != nil {
			continue
		}
		if req.Status != "" && string(v.Status) != req.Status {
			continue
		}
		items = append(items, toVersionItem(v))
	}
	if req.Status == "" {
		return items, total, nil
	}

	start, end := repository.PageWindow(len(items), req.Page, req.Size)
	return items[start:end], len(items), nil
}

// TransitionRequest 版本状态流转请求
type TransitionRequest struct {
	UserID    string `validate:"required"`
	VersionID string `validate:"required"`
	ToStatus  string `validate:"required"`
	Comment   *string
}

// TransitionStatus moves a version along its lifecycle and audits the change.
// The status write is conditional on the status read here, so a concurrent
// transition makes this one fail with ErrInvalidTransition.
func (s *VersionService) TransitionStatus(ctx context.Context, req TransitionRequest) (*VersionItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	to := domain.VersionStatus(strings.ToLower(strings.TrimSpace(req.ToStatus)))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown version status %q", ErrInvalidRequest, req.ToStatus)
	}

	v, err := s.getVersion(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	from := v.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	change := &domain.VersionStatusChange{
		VersionID:  req.VersionID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  req.UserID,
		Comment:    req.Comment,
	}
	if _, err := s.versions.ApplyStatusChange(ctx, change); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, fmt.Errorf("%w: version %s is no longer %s", ErrInvalidTransition, req.VersionID, from)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: version %s", ErrNotFound, req.VersionID)
		}
		return nil, fmt.Errorf("failed to change version status: %w", err)
	}

	s.logger.Info("Version status changed",
		zap.String("version_id", req.VersionID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("user_id", req.UserID),
	)
	s.publish(ctx, events.New(events.TypeVersionStatusChanged, req.VersionID, req.UserID, map[string]any{
		"from_status": string(from),
		"to_status":   string(to),
	}))
	return s.GetVersion(ctx, req.VersionID)
}

// History 查询版本状态变更历史
func (s *VersionService) History(ctx context.Context, versionID string) ([]domain.VersionStatusChange, error) {
	if _, err := s.getVersion(ctx, versionID); err != nil {
		return nil, err
	}
	changes, err := s.versions.ListStatusChanges(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list version history: %w", err)
	}
	return changes, nil
}

func (s *VersionService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
