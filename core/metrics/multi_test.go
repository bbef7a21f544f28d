package metrics

import "testing"

// countSink counts every event it sees; it implements the optional training
// recorder but not the ingest one.
type countSink struct {
	runs int
	fits int
}

func (s *countSink) RecordPipelineRun(PipelineRunEvent) error { s.runs++; return nil }
func (s *countSink) RecordTrainingRun(TrainingRunEvent) error { s.fits++; return nil }

func TestMultiSinkForwards(t *testing.T) {
	s1 := &countSink{}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordPipelineRun(PipelineRunEvent{Train: "12303"}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordTrainingRun(TrainingRunEvent{Train: "12303"}); err != nil {
		t.Fatalf("record fit: %v", err)
	}
	if s1.runs != 1 || s2.runs != 1 || s1.fits != 1 || s2.fits != 1 {
		t.Fatalf("events not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkSkipsUnsupported(t *testing.T) {
	m := NewMultiSink(&countSink{}, NopSink{})
	// countSink does not implement IngestRecorder; neither call may fail.
	if err := m.RecordIngest(IngestEvent{Train: "12303", Rows: 10}); err != nil {
		t.Fatalf("record ingest: %v", err)
	}
	if err := m.RecordBatch(BatchEvent{Batch: "b1"}); err != nil {
		t.Fatalf("record batch: %v", err)
	}
}
