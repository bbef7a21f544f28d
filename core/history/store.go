package history

import (
	"errors"

	"github.com/Parthita/train-delay-backend/core/model"
)

// ErrNoHistory indicates no history has been cached for the train.
var ErrNoHistory = errors.New("no cached history")

// Store keeps each train's scraped delay history between runs. A cached
// model is only as useful as the history that feeds its lag features, so the
// two are persisted side by side and checked together before the pipeline
// skips ingestion.
type Store interface {
	Load(train string) ([]model.HistoryRecord, error)
	Save(train string, records []model.HistoryRecord) error
	Exists(train string) bool
}
