package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticketclassifier/internal/fileingest"
	"ticketclassifier/pkg/categorizer"
)

// Classification is one completed classification run.
type Classification struct {
	ID       string
	Case     categorizer.Case
	Result   categorizer.Result
	Duration time.Duration
}

// CategorizationService runs single-ticket classifications.
type CategorizationService struct {
	Categorizer categorizer.TicketCategorizer
}

func NewCategorizationService(cat categorizer.TicketCategorizer) *CategorizationService {
	return &CategorizationService{Categorizer: cat}
}

// Classify classifies an already loaded ticket. The returned Classification
// is non-nil even on failure so callers can log its ID.
func (s *CategorizationService) Classify(ctx context.Context, ticket categorizer.Ticket, taxonomy *categorizer.Taxonomy, c categorizer.Case) (*Classification, error) {
	id := uuid.NewString()
	logger := log.WithFields(log.Fields{"request_id": id, "case": c.Key()})
	logger.Debug("Starting classification")

	start := time.Now()
	result, err := s.Categorizer.Classify(ctx, ticket, taxonomy, c)
	out := &Classification{ID: id, Case: c, Result: result, Duration: time.Since(start)}
	if err != nil {
		logger.WithField("elapsed", out.Duration).Debugf("Classification failed: %v", err)
		return out, err
	}
	logger.WithField("elapsed", out.Duration).Debug("Classification finished")
	return out, nil
}

// ClassifyFiles loads the ticket and taxonomy from disk and classifies.
func (s *CategorizationService) ClassifyFiles(ctx context.Context, ticketPath, categoriesPath string, c categorizer.Case) (*Classification, error) {
	ticket, taxonomy, err := fileingest.LoadData(ticketPath, categoriesPath)
	if err != nil {
		return nil, err
	}
	return s.Classify(ctx, ticket, taxonomy, c)
}
