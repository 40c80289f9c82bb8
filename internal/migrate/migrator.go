package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/raphaelgruber/qmigrate/internal/confluence"
	"github.com/raphaelgruber/qmigrate/internal/discourse"
	"github.com/raphaelgruber/qmigrate/internal/transform"
)

// MigratedTag marks every thread created by this tool on the destination.
const MigratedTag = "migrated"

// Source is the slice of the legacy Questions API the orchestrator needs.
type Source interface {
	FetchQuestions(ctx context.Context, spaceKey string, limit, start int) ([]confluence.Question, error)
	QuestionDetails(ctx context.Context, id int64) (*confluence.Question, error)
	Answers(ctx context.Context, questionID int64) (*confluence.AnswerPage, error)
	AnswerDetails(ctx context.Context, id int64) (*confluence.Answer, error)
	AssetSource
}

// Forum is the slice of the destination API the orchestrator needs.
type Forum interface {
	CreateTopic(ctx context.Context, title, raw string, tags []string, categoryID int) (int, error)
	CreatePost(ctx context.Context, topicID int, raw string) (int, error)
	AcceptSolution(ctx context.Context, topicID, postID int) error
	ListTopics(ctx context.Context, categoryID int) ([]discourse.TopicRef, error)
	DeleteTopic(ctx context.Context, topicID int) error
	AssetSink
}

// Options configure a migration run.
type Options struct {
	// DryRun simulates destination mutations without performing them.
	DryRun bool
	// TryCount stops the run after this many created topics; 0 = unlimited.
	TryCount int
	// IgnoreDuplicate migrates items even when the ledger already has them.
	IgnoreDuplicate bool
	// PageSize is the source pagination batch size.
	PageSize int
	// PauseEvery inserts a pause after this many destination-mutating calls.
	PauseEvery int
	// PauseFor is the pause duration.
	PauseFor time.Duration
}

// Deps are the collaborators a Migrator drives. Ledger and Registry are the
// only cross-run memory; everything else is stateless per item.
type Deps struct {
	Source      Source
	Forum       Forum
	Ledger      Ledger
	Registry    Registry
	Formatter   *transform.Formatter
	Rehoster    *Rehoster
	CategoryFor func(tags []string) int
	Observer    Observer
	Logger      *slog.Logger
}

// Migrator drives the migration pipeline, single-threaded and sequential.
// Per-item failures are contained; only the failed item is left for the
// next run.
type Migrator struct {
	deps  Deps
	opts  Options
	runID string

	created   int
	mutations int
	sleep     func(time.Duration)
}

// New creates a migrator. Zero option fields get their defaults.
func New(deps Deps, opts Options) *Migrator {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.PauseEvery <= 0 {
		opts.PauseEvery = 10
	}
	if opts.PauseFor <= 0 {
		opts.PauseFor = 5 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer == nil {
		deps.Observer = LogObserver{Logger: deps.Logger}
	}
	if deps.CategoryFor == nil {
		deps.CategoryFor = func([]string) int { return 0 }
	}
	return &Migrator{
		deps:  deps,
		opts:  opts,
		runID: uuid.NewString(),
		sleep: time.Sleep,
	}
}

// Created returns the number of topics created (or simulated) this run.
func (m *Migrator) Created() int {
	return m.created
}

// Run migrates the whole corpus. All pages are drained first, then items
// are processed strictly oldest-first: the destination cannot backdate
// threads, so insertion order is the only way to preserve chronology.
func (m *Migrator) Run(ctx context.Context, spaceKey string) error {
	questions, err := m.collect(ctx, spaceKey)
	if err != nil {
		return err
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].DateAsked < questions[j].DateAsked
	})

	m.deps.Logger.Info("starting migration", "run", m.runID, "questions", len(questions), "dry_run", m.opts.DryRun)

	for i := range questions {
		m.MigrateQuestion(ctx, &questions[i])
		if m.opts.TryCount > 0 && m.created >= m.opts.TryCount {
			m.publish(Event{Type: EventRunDone, Detail: fmt.Sprintf("reached try count of %d", m.opts.TryCount)})
			return nil
		}
	}

	m.publish(Event{Type: EventRunDone, Detail: fmt.Sprintf("migrated %d topics", m.created)})
	return nil
}

// MigrateSingle migrates one question by id, bypassing the duplicate gate.
func (m *Migrator) MigrateSingle(ctx context.Context, id int64) error {
	question, err := m.deps.Source.QuestionDetails(ctx, id)
	if err != nil {
		return fmt.Errorf("question %d: %w", id, err)
	}
	m.opts.IgnoreDuplicate = true
	m.MigrateQuestion(ctx, question)
	return nil
}

// collect drains the paginated corpus. A short or empty batch signals
// exhaustion.
func (m *Migrator) collect(ctx context.Context, spaceKey string) ([]confluence.Question, error) {
	var all []confluence.Question
	limit := m.opts.PageSize
	for start := 0; ; start += limit {
		page, err := m.deps.Source.FetchQuestions(ctx, spaceKey, limit, start)
		if err != nil {
			return nil, fmt.Errorf("fetch questions page at offset %d: %w", start, err)
		}
		all = append(all, page...)
		if len(page) < limit {
			return all, nil
		}
	}
}

// MigrateQuestion runs the per-item state machine. Every failure is
// contained to the item: it is reported, the ledger stays untouched, and
// the item is retried on the next invocation.
func (m *Migrator) MigrateQuestion(ctx context.Context, q *confluence.Question) {
	if m.deps.Ledger.Contains(q.ID) && !m.opts.IgnoreDuplicate {
		m.publish(Event{Type: EventSkipped, ItemID: q.ID, Title: q.Title, Detail: "already migrated"})
		return
	}

	details, err := m.deps.Source.QuestionDetails(ctx, q.ID)
	if err != nil {
		m.publish(Event{Type: EventItemFailed, ItemID: q.ID, Title: q.Title, Err: fmt.Errorf("fetch details: %w", err)})
		return
	}
	q.Body = details.Body
	q.Comments = details.Comments

	m.registerAuthor(q.Author)
	for i := range q.Comments {
		m.registerAuthor(q.Comments[i].Author)
	}

	content := m.deps.Formatter.QuestionContent(q, m.processBody(ctx, q.Body.Content, q.ID))

	tags := make([]string, 0, len(q.Topics)+1)
	for _, topic := range q.Topics {
		tags = append(tags, topic.Name)
	}
	tags = append(discourse.CleanTags(tags), MigratedTag)
	categoryID := m.deps.CategoryFor(tags)

	if m.opts.DryRun {
		m.publish(Event{Type: EventDryRun, ItemID: q.ID, Title: q.Title,
			Detail: fmt.Sprintf("would create topic with tags %v (preview: %s)", tags, preview(content))})
		m.created++
		return
	}

	topicID, err := m.createTopic(ctx, q.Title, content, tags, categoryID)
	if err != nil {
		m.publish(Event{Type: EventItemFailed, ItemID: q.ID, Title: q.Title, Err: fmt.Errorf("create topic: %w", err)})
		return
	}
	m.publish(Event{Type: EventTopicCreated, ItemID: q.ID, Title: q.Title, Detail: fmt.Sprintf("topic %d", topicID)})
	m.pace()

	if err := m.processAnswers(ctx, q, topicID); err != nil {
		m.publish(Event{Type: EventItemFailed, ItemID: q.ID, Title: q.Title, Err: err})
		return
	}

	if err := m.deps.Ledger.Add(q.ID); err != nil {
		m.publish(Event{Type: EventItemFailed, ItemID: q.ID, Title: q.Title, Err: fmt.Errorf("update ledger: %w", err)})
		return
	}
	m.created++
}

// processBody runs the content pipeline on a raw body: emoji tokens, link
// rewriting, then attachment rehosting with Markdown conversion.
func (m *Migrator) processBody(ctx context.Context, body string, itemID int64) string {
	body = transform.Emojis(body)
	body = transform.RewriteLinks(body, m.deps.Rehoster.BaseURL)
	return m.deps.Rehoster.Rehost(ctx, body, itemID)
}

func (m *Migrator) processAnswers(ctx context.Context, q *confluence.Question, topicID int) error {
	if q.AnswersCount <= 0 {
		return nil
	}

	page, err := m.deps.Source.Answers(ctx, q.ID)
	if err != nil {
		if errors.Is(err, confluence.ErrUnexpectedReplyShape) {
			m.publish(Event{Type: EventAnomaly, ItemID: q.ID, Title: q.Title, Err: err})
			return nil
		}
		return fmt.Errorf("fetch answers: %w", err)
	}

	for i := range page.Results {
		answer := &page.Results[i]
		m.registerAuthor(answer.Author)
		if err := m.addAnswer(ctx, topicID, answer.ID); err != nil {
			return fmt.Errorf("answer %d: %w", answer.ID, err)
		}
	}
	return nil
}

func (m *Migrator) addAnswer(ctx context.Context, topicID int, answerID int64) error {
	details, err := m.deps.Source.AnswerDetails(ctx, answerID)
	if err != nil {
		return fmt.Errorf("fetch details: %w", err)
	}
	for i := range details.Comments {
		m.registerAuthor(details.Comments[i].Author)
	}

	content := m.deps.Formatter.AnswerContent(details, m.processBody(ctx, details.Body.Content, details.ID))

	if m.opts.DryRun {
		m.publish(Event{Type: EventDryRun, ItemID: answerID,
			Detail: fmt.Sprintf("would add answer to topic %d (preview: %s)", topicID, preview(content))})
		return nil
	}

	postID, err := m.createPost(ctx, topicID, content)
	if err != nil {
		return err
	}
	m.publish(Event{Type: EventPostCreated, ItemID: answerID, Detail: fmt.Sprintf("post %d in topic %d", postID, topicID)})
	m.pace()

	if details.Accepted {
		m.markAccepted(ctx, topicID, postID)
	}
	return nil
}

// markAccepted flags the post as the topic's solution. Destinations without
// the capability make this a logged no-op; nothing here can fail the item.
func (m *Migrator) markAccepted(ctx context.Context, topicID, postID int) {
	err := m.deps.Forum.AcceptSolution(ctx, topicID, postID)
	switch {
	case err == nil:
		m.deps.Logger.Info("marked post as solution", "topic", topicID, "post", postID)
	case errors.Is(err, discourse.ErrSolutionsUnsupported):
		m.deps.Logger.Info("destination cannot mark accepted answers, skipping", "topic", topicID, "post", postID)
	default:
		m.deps.Logger.Error("failed to mark post as solution", "topic", topicID, "post", postID, "error", err)
	}
}

// PurgeTopics deletes every destination thread in the given categories,
// pausing periodically to respect rate limits. Per-topic failures are
// counted, not fatal.
func (m *Migrator) PurgeTopics(ctx context.Context, categoryIDs []int) (deleted, failed int, err error) {
	for _, categoryID := range categoryIDs {
		topics, err := m.deps.Forum.ListTopics(ctx, categoryID)
		if err != nil {
			return deleted, failed, fmt.Errorf("list topics in category %d: %w", categoryID, err)
		}

		for _, topic := range topics {
			if m.opts.DryRun {
				m.publish(Event{Type: EventDryRun, Title: topic.Title, Detail: fmt.Sprintf("would delete topic %d", topic.ID)})
				continue
			}
			if err := m.deps.Forum.DeleteTopic(ctx, topic.ID); err != nil {
				failed++
				m.deps.Logger.Error("failed to delete topic", "topic", topic.ID, "error", err)
				continue
			}
			deleted++
			m.publish(Event{Type: EventTopicDeleted, Title: topic.Title, Detail: fmt.Sprintf("topic %d", topic.ID)})
			if deleted%m.opts.PauseEvery == 0 {
				m.publish(Event{Type: EventPaused, Detail: fmt.Sprintf("after %d deletions", deleted)})
				m.sleep(m.opts.PauseFor)
			}
		}
	}
	return deleted, failed, nil
}

// createTopic retries transient destination errors with exponential
// backoff. Client errors other than rate limiting are permanent.
func (m *Migrator) createTopic(ctx context.Context, title, raw string, tags []string, categoryID int) (int, error) {
	var topicID int
	err := m.withRetry(ctx, func() error {
		id, err := m.deps.Forum.CreateTopic(ctx, title, raw, tags, categoryID)
		if err != nil {
			return err
		}
		topicID = id
		return nil
	})
	return topicID, err
}

func (m *Migrator) createPost(ctx context.Context, topicID int, raw string) (int, error) {
	var postID int
	err := m.withRetry(ctx, func() error {
		id, err := m.deps.Forum.CreatePost(ctx, topicID, raw)
		if err != nil {
			return err
		}
		postID = id
		return nil
	})
	return postID, err
}

func (m *Migrator) withRetry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		var apiErr *discourse.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != 429 {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(wrapped, bo)
}

// pace pauses after every PauseEvery destination-mutating calls to stay
// under the destination's request-rate policy.
func (m *Migrator) pace() {
	m.mutations++
	if m.mutations%m.opts.PauseEvery == 0 {
		m.publish(Event{Type: EventPaused, Detail: fmt.Sprintf("after %d creations", m.mutations)})
		m.sleep(m.opts.PauseFor)
	}
}

func (m *Migrator) registerAuthor(author *confluence.Author) {
	if err := m.deps.Registry.Register(author); err != nil {
		m.deps.Logger.Error("failed to register author", "error", err)
	}
}

func (m *Migrator) publish(e Event) {
	e.RunID = m.runID
	m.deps.Observer.Publish(e)
}

// preview truncates content for event details, backing up to a rune
// boundary so multi-byte characters are never split.
func preview(content string) string {
	const max = 100
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
