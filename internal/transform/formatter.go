package transform

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/qmigrate/internal/confluence"
)

// dateLayout renders timestamps as "02 January 2006".
const dateLayout = "02 January 2006"

// Formatter assembles the destination-ready document for a question or an
// answer. Output ordering is a contract: attribution header first, then the
// processed body, then comments in source order.
type Formatter struct {
	// BaseURL is the legacy instance, used for original-item permalinks.
	BaseURL string
	// Overrides substitutes display names with known identity quirks.
	Overrides NameOverrides
}

// DisplayName resolves the name to publish for an author. Authors without a
// record or display name render as "unknown".
func (f *Formatter) DisplayName(a *confluence.Author) string {
	if a == nil || a.FullName == "" {
		return "unknown"
	}
	return f.Overrides.Resolve(a.FullName)
}

// QuestionContent renders the first post of a migrated thread.
func (f *Formatter) QuestionContent(q *confluence.Question, processedBody string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Originally asked by %s on %s* ([original question](%s))\n\n---\n\n",
		f.DisplayName(q.Author),
		q.DateAsked.Time().Format(dateLayout),
		f.questionPermalink(q.ID))
	b.WriteString(processedBody)
	b.WriteString(f.Comments(q.Comments))
	return b.String()
}

// AnswerContent renders one reply post.
func (f *Formatter) AnswerContent(a *confluence.Answer, processedBody string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Answer by %s on %s*\n\n",
		f.DisplayName(a.Author),
		a.DateAnswered.Time().Format(dateLayout))
	b.WriteString(processedBody)
	b.WriteString(f.Comments(a.Comments))
	return b.String()
}

// Comments renders nested comments as collapsible blocks, labeled with the
// author and date and kept strictly in source order.
func (f *Formatter) Comments(comments []confluence.Comment) string {
	if len(comments) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n#### Comments:\n")
	for _, c := range comments {
		fmt.Fprintf(&b, "\n[details=\"%s commented on %s\"]\n> %s\n[/details]\n",
			f.DisplayName(c.Author),
			c.DateCommented.Time().Format(dateLayout),
			Markdown(c.Body.Content))
	}
	return b.String()
}

func (f *Formatter) questionPermalink(id int64) string {
	return fmt.Sprintf("%s/questions/%d", strings.TrimRight(f.BaseURL, "/"), id)
}
