package metrics

// MultiSink fans every event out to multiple sinks. Optional recorders are
// forwarded only to sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink over the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPipelineRun forwards the run to all sinks, returning the first error.
func (m *MultiSink) RecordPipelineRun(ev PipelineRunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPipelineRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTrainingRun forwards fits to sinks that record them.
func (m *MultiSink) RecordTrainingRun(ev TrainingRunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRunRecorder); ok {
			if err := rec.RecordTrainingRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordIngest forwards history fetches to sinks that record them.
func (m *MultiSink) RecordIngest(ev IngestEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(IngestRecorder); ok {
			if err := rec.RecordIngest(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBatch forwards batch completions to sinks that record them.
func (m *MultiSink) RecordBatch(ev BatchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(BatchRecorder); ok {
			if err := rec.RecordBatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
