package repository

import (
	"context"
	"errors"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// ErrStatusConflict is returned by ApplyStatusChange when the version is no
// longer in the expected from-status.
var ErrStatusConflict = errors.New("version status changed concurrently")

// VersionsRepository 版本创建、状态流转与审计
// Version members live in the version dimension table; reads go through
// DimensionsRepository, writes that must stay consistent go through here.
type VersionsRepository interface {
	// CreateVersion inserts the version member and, when baseVersionID is set,
	// copies every planned_data row of the base into it and reports the copied
	// row count. Both happen or neither.
	CreateVersion(ctx context.Context, m *domain.DimensionMember, baseVersionID *string) (id string, copied int, err error)
	// ApplyStatusChange moves the version from c.FromStatus to c.ToStatus and
	// records c in the history in one unit. A version not in c.FromStatus
	// yields ErrStatusConflict and nothing is written.
	ApplyStatusChange(ctx context.Context, c *domain.VersionStatusChange) (string, error)
	ListStatusChanges(ctx context.Context, versionID string) ([]domain.VersionStatusChange, error)
}
