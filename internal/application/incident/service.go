// Package incident implements intake of supplier damage reports. Records
// are normalized and validated before anything touches the store; a
// rejected record is never partially written.
package incident

import (
	"context"
	"time"

	domainIncident "github.com/vitrina-analytics/catalog-insight/internal/domain/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

const (
	// DefaultListSize and MaxListSize bound incident listings.
	DefaultListSize = 50
	MaxListSize     = 500
)

// CreateResult reports one accepted incident.
type CreateResult struct {
	IncidentID string `json:"incident_id"`
	Created    bool   `json:"created"`
}

// Service exposes incident intake and listing.
type Service interface {
	// Create normalizes, validates and stores one incident. The write
	// waits until the record is searchable.
	Create(ctx context.Context, rec *domainIncident.Record) (*CreateResult, error)

	// CreateBatch validates every record up front and bulk-writes them.
	// A single invalid record rejects the whole batch before any write.
	CreateBatch(ctx context.Context, recs []*domainIncident.Record) (int, error)

	// List returns incidents matching the query, newest first.
	List(ctx context.Context, q domainIncident.ListQuery) ([]*domainIncident.Record, error)
}

type service struct {
	repo   domainIncident.Repository
	logger logging.Logger
}

// NewService constructs the incident service.
func NewService(repo domainIncident.Repository, logger logging.Logger) Service {
	if repo == nil {
		panic("incident: repository must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		repo:   repo,
		logger: logger.Named("incident"),
	}
}

func (s *service) Create(ctx context.Context, rec *domainIncident.Record) (*CreateResult, error) {
	if rec == nil {
		return nil, errors.InvalidParam("incident payload is required")
	}

	rec.Normalize(time.Now())
	if err := rec.Validate(); err != nil {
		s.logger.Warn("incident rejected",
			logging.String("supplier_id", rec.SupplierID),
			logging.Err(err))
		return nil, err
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("incident recorded",
		logging.String("incident_id", rec.IncidentID),
		logging.String("supplier_id", rec.SupplierID),
		logging.Int("qty_damaged", rec.QtyDamaged))

	return &CreateResult{IncidentID: rec.IncidentID, Created: true}, nil
}

func (s *service) CreateBatch(ctx context.Context, recs []*domainIncident.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	now := time.Now()
	for _, rec := range recs {
		rec.Normalize(now)
		if err := rec.Validate(); err != nil {
			return 0, err
		}
	}

	n, err := s.repo.BulkInsert(ctx, recs)
	if err != nil {
		return n, err
	}
	s.logger.Info("incident batch recorded", logging.Int("count", n))
	return n, nil
}

func (s *service) List(ctx context.Context, q domainIncident.ListQuery) ([]*domainIncident.Record, error) {
	if q.Size <= 0 {
		q.Size = DefaultListSize
	}
	if q.Size > MaxListSize {
		q.Size = MaxListSize
	}
	return s.repo.List(ctx, q)
}
