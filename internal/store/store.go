package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"datacenter-audit-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, fields UserUpdate) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	DeactivateUser(ctx context.Context, id string) error

	// Audits
	CreateAudit(ctx context.Context, a *model.Audit) error
	AuditByID(ctx context.Context, id string) (*AuditRecord, error)
	Audits(ctx context.Context, f AuditFilter) ([]AuditRecord, error)
	UpdateAuditStatus(ctx context.Context, id string, status model.AuditStatus) (*AuditRecord, error)

	// Issues
	CreateIssue(ctx context.Context, i *model.Issue) error
	IssueByID(ctx context.Context, id string) (*IssueRecord, error)
	Issues(ctx context.Context, f IssueFilter) ([]IssueRecord, error)
	UpdateIssueStatus(ctx context.Context, id string, status model.IssueStatus) (*IssueRecord, error)
	UpdateIssue(ctx context.Context, id string, fields IssueUpdate) (*IssueRecord, error)

	// Aggregation
	IssueStatistics(ctx context.Context, f IssueFilter) (*IssueStatistics, error)
	DashboardCounts(ctx context.Context) (*DashboardCounts, error)
}

// Domain-level errors. The store translates gorm and driver errors into
// these so callers never see driver-specific codes.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// translate maps gorm and driver errors to the store's domain errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	// sqlite (used in tests) reports unique violations as plain errors.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
