package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// DimensionService 维度主数据服务
type DimensionService struct {
	dims     repository.DimensionsRepository
	versions *VersionService
	logger   *zap.Logger
}

// NewDimensionService 创建维度服务。versions 为空时 version 类型按普通维度处理
func NewDimensionService(dims repository.DimensionsRepository, versions *VersionService, logger *zap.Logger) *DimensionService {
	return &DimensionService{dims: dims, versions: versions, logger: logger}
}

// MemberItem 维度成员（前端格式）
type MemberItem struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	BusinessID  string         `json:"business_id"`
	Description *string        `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toMemberItem(m *domain.DimensionMember) MemberItem {
	attrs := m.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return MemberItem{
		ID:          m.ID,
		Type:        string(m.Type),
		BusinessID:  m.BusinessID,
		Description: m.Description,
		Attributes:  attrs,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CatalogEntry 维度目录项（前端格式）
type CatalogEntry struct {
	Type            string   `json:"type"`
	Field           string   `json:"field"`
	Table           string   `json:"table"`
	BusinessIDField string   `json:"business_id_field"`
	Attributes      []string `json:"attributes"`
	Label           string   `json:"label"`
}

// Catalog lists every dimension the grid can show.
func (s *DimensionService) Catalog() []CatalogEntry {
	entries := catalog.Entries()
	out := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		out[i] = CatalogEntry{
			Type:            string(e.Type),
			Field:           e.Field,
			Table:           e.Table,
			BusinessIDField: e.BusinessIDField,
			Attributes:      append([]string(nil), e.Attributes...),
			Label:           e.Label,
		}
	}
	return out
}

// ListMembersRequest 查询维度成员列表请求
type ListMembersRequest struct {
	Type   string `validate:"required,dimension_type"`
	Search string
	Page   int
	Size   int
}

// ListMembersResponse 查询维度成员列表响应
type ListMembersResponse struct {
	Items []MemberItem `json:"items"`
	Total int          `json:"total"`
}

// ListMembers 查询维度成员列表
func (s *DimensionService) ListMembers(ctx context.Context, req ListMembersRequest) (*ListMembersResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	t, _ := domain.ParseDimensionType(req.Type)
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 {
		req.Size = 100
	}

	members, total, err := s.dims.ListMembers(ctx, t, repository.DimensionFilter{Search: req.Search}, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s members: %w", t, err)
	}
	items := make([]MemberItem, 0, len(members))
	for _, m := range members {
		items = append(items, toMemberItem(m))
	}
	return &ListMembersResponse{Items: items, Total: total}, nil
}

// GetMember 查询维度成员
func (s *DimensionService) GetMember(ctx context.Context, typ, id string) (*MemberItem, error) {
	t, err := domain.ParseDimensionType(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	m, err := s.dims.GetMember(ctx, t, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s member %s", ErrNotFound, t, id)
		}
		return nil, fmt.Errorf("failed to get %s member: %w", t, err)
	}
	item := toMemberItem(m)
	return &item, nil
}

// CreateMemberRequest 创建维度成员请求
type CreateMemberRequest struct {
	UserID      string
	Type        string  `validate:"required,dimension_type"`
	BusinessID  string  `validate:"required,max=100"`
	Description *string `validate:"omitempty,max=500"`
	Attributes  map[string]any
}

func (r *CreateMemberRequest) normalize() {
	r.BusinessID = strings.TrimSpace(r.BusinessID)
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
}

// checkReservedAttributes rejects blank attribute names and attributes
// shadowing the business id or description.
func checkReservedAttributes(e catalog.Entry, attrs map[string]any) error {
	for k := range attrs {
		if strings.TrimSpace(k) == "" || len(k) > 64 {
			return fmt.Errorf("%w: invalid attribute name %q", ErrInvalidRequest, k)
		}
		if k == e.BusinessIDField || k == "description" {
			return fmt.Errorf("%w: attribute %q is reserved", ErrInvalidRequest, k)
		}
	}
	return nil
}

// ensureUnique fails with ErrDuplicateMember when another member of t uses businessID.
func (s *DimensionService) ensureUnique(ctx context.Context, t domain.DimensionType, businessID, selfID string) error {
	existing, err := s.dims.GetMemberByBusinessID(ctx, t, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check %s business id: %w", t, err)
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: %s %q", ErrDuplicateMember, t, businessID)
	}
	return nil
}

// CreateMember 创建维度成员；version 类型交给 VersionService
func (s *DimensionService) CreateMember(ctx context.Context, req CreateMemberRequest) (string, error) {
	req.normalize()
	if err := validateStruct(req); err != nil {
		return "", err
	}
	t, _ := domain.ParseDimensionType(req.Type)
	e, _ := catalog.Lookup(t)
	if err := checkReservedAttributes(e, req.Attributes); err != nil {
		return "", err
	}

	if t == domain.DimensionVersion && s.versions != nil {
		vreq := versionRequestFromAttributes(req)
		resp, err := s.versions.CreateVersion(ctx, vreq)
		if err != nil {
			return "", err
		}
		return resp.ID, nil
	}

	if err := s.ensureUnique(ctx, t, req.BusinessID, ""); err != nil {
		return "", err
	}
	id, err := s.dims.CreateMember(ctx, &domain.DimensionMember{
		Type:        t,
		BusinessID:  req.BusinessID,
		Description: req.Description,
		Attributes:  req.Attributes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create %s member: %w", t, err)
	}
	s.logger.Info("Created dimension member",
		zap.String("type", string(t)),
		zap.String("id", id),
		zap.String("business_id", req.BusinessID),
		zap.String("user_id", req.UserID),
	)
	return id, nil
}

func versionRequestFromAttributes(req CreateMemberRequest) CreateVersionRequest {
	v := CreateVersionRequest{
		UserID:      req.UserID,
		Name:        req.BusinessID,
		Description: req.Description,
		Attributes:  map[string]any{},
	}
	for k, val := range req.Attributes {
		switch k {
		case domain.AttrVersionType:
			v.VersionType, _ = val.(string)
		case domain.AttrIsBaseVersion:
			v.IsBaseVersion, _ = val.(bool)
		case domain.AttrBaseVersionID:
			if s, ok := val.(string); ok && s != "" {
				v.BaseVersionID = &s
			}
		case domain.AttrVersionStatus:
			// status is set through transitions only
		default:
			v.Attributes[k] = val
		}
	}
	return v
}

// UpdateMemberRequest 更新维度成员请求
type UpdateMemberRequest struct {
	UserID      string
	Type        string  `validate:"required,dimension_type"`
	ID          string  `validate:"required"`
	BusinessID  string  `validate:"required,max=100"`
	Description *string `validate:"omitempty,max=500"`
	Attributes  map[string]any
}

// UpdateMember 更新维度成员。version 成员的状态属性保持不变（只能通过状态流转修改）
func (s *DimensionService) UpdateMember(ctx context.Context, req UpdateMemberRequest) (*MemberItem, error) {
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	t, _ := domain.ParseDimensionType(req.Type)
	e, _ := catalog.Lookup(t)
	if err := checkReservedAttributes(e, req.Attributes); err != nil {
		return nil, err
	}

	current, err := s.dims.GetMember(ctx, t, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s member %s", ErrNotFound, t, req.ID)
		}
		return nil, fmt.Errorf("failed to get %s member: %w", t, err)
	}
	if req.BusinessID != current.BusinessID {
		if err := s.ensureUnique(ctx, t, req.BusinessID, current.ID); err != nil {
			return nil, err
		}
	}

	attrs := map[string]any{}
	for k, v := range req.Attributes {
		attrs[k] = v
	}
	if t == domain.DimensionVersion {
		if st, ok := current.Attributes[domain.AttrVersionStatus]; ok {
			attrs[domain.AttrVersionStatus] = st
		}
		if vt, ok := attrs[domain.AttrVersionType].(string); ok && !domain.VersionType(vt).Valid() {
			return nil, fmt.Errorf("%w: unknown version type %q", ErrInvalidRequest, vt)
		}
	}

	updated := *current
	updated.BusinessID = req.BusinessID
	updated.Description = req.Description
	updated.Attributes = attrs
	if err := s.dims.UpdateMember(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s member %s", ErrNotFound, t, req.ID)
		}
		return nil, fmt.Errorf("failed to update %s member: %w", t, err)
	}
	return s.GetMember(ctx, string(t), req.ID)
}
