package migrate

import "testing"

func TestRunStats_CountsByEventType(t *testing.T) {
	s := NewRunStats()

	for _, e := range []Event{
		{Type: EventTopicCreated},
		{Type: EventTopicCreated},
		{Type: EventPostCreated},
		{Type: EventSkipped},
		{Type: EventItemFailed},
		{Type: EventAnomaly},
		{Type: EventDryRun},
		{Type: EventRunDone},
	} {
		s.Publish(e)
	}

	snap := s.Snapshot()
	if snap.TopicsCreated != 2 {
		t.Errorf("TopicsCreated = %d, want 2", snap.TopicsCreated)
	}
	if snap.PostsCreated != 1 || snap.Skipped != 1 || snap.Failed != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Anomalies != 1 || snap.Simulated != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Elapsed < 0 {
		t.Errorf("Elapsed = %v", snap.Elapsed)
	}
}
