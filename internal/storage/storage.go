package storage

import "lvrfee/internal/model"

// Sink persists fee decision records.
type Sink interface {
	PutDecisionBatch(decisions []model.FeeDecision) error
}
