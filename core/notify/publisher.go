// Package notify delivers completed prediction results to downstream
// consumers. Delivery is best-effort: a failed publish is logged by the
// caller and never fails the pipeline run it reports on.
package notify

import "github.com/Parthita/train-delay-backend/core/pipeline"

// Publisher pushes one terminal Result to whoever listens.
type Publisher interface {
	PublishResult(res pipeline.Result) error
	Close()
}

// NopPublisher drops everything. Used when notification is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishResult(pipeline.Result) error { return nil }
func (NopPublisher) Close()                              {}
