package modelstore

import (
	"errors"

	"github.com/Parthita/train-delay-backend/core/training"
)

// ErrNotFound indicates no artifact has been stored for the train.
var ErrNotFound = errors.New("artifact not found")

// Store persists one artifact per train number. Put must be atomic: a reader
// never observes a model without its matching encoder or vice versa. There
// is no built-in expiry; retraining is the caller's decision.
type Store interface {
	Get(train string) (*training.Artifact, error)
	Put(train string, art *training.Artifact) error
	Exists(train string) bool
}
