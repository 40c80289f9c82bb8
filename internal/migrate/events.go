package migrate

import "log/slog"

// EventType classifies one observable step of a migration run.
type EventType string

const (
	EventTopicCreated EventType = "topic_created"
	EventPostCreated  EventType = "post_created"
	EventSkipped      EventType = "skipped"
	EventItemFailed   EventType = "item_failed"
	EventAnomaly      EventType = "anomaly"
	EventTopicDeleted EventType = "topic_deleted"
	EventDryRun       EventType = "dry_run"
	EventPaused       EventType = "paused"
	EventRunDone      EventType = "run_done"
)

// Event is emitted by the orchestrator for every significant step, keeping
// presentation out of the pipeline itself.
type Event struct {
	Type   EventType
	RunID  string
	ItemID int64
	Title  string
	Detail string
	Err    error
}

// Observer receives orchestrator events. Implementations are called
// synchronously and must be cheap.
type Observer interface {
	Publish(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Publish(e Event) { f(e) }

// LogObserver forwards events to a slog logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Publish(e Event) {
	attrs := []any{"run", e.RunID, "type", string(e.Type)}
	if e.ItemID != 0 {
		attrs = append(attrs, "item", e.ItemID)
	}
	if e.Title != "" {
		attrs = append(attrs, "title", e.Title)
	}
	if e.Detail != "" {
		attrs = append(attrs, "detail", e.Detail)
	}

	switch {
	case e.Err != nil:
		attrs = append(attrs, "error", e.Err)
		o.Logger.Error("migration event", attrs...)
	case e.Type == EventAnomaly:
		o.Logger.Warn("migration event", attrs...)
	default:
		o.Logger.Info("migration event", attrs...)
	}
}

// multiObserver fans events out to several observers.
type multiObserver []Observer

func (m multiObserver) Publish(e Event) {
	for _, o := range m {
		o.Publish(e)
	}
}

// ComposeObservers combines observers into one. Nil entries are dropped.
func ComposeObservers(observers ...Observer) Observer {
	var filtered multiObserver
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
