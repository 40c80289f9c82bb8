package confluence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/questions/1.0/question", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("start"))
		assert.Equal(t, "DEV", r.URL.Query().Get("spaceKey"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":101,"title":"How do I reset?","dateAsked":1434369600000}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", nil)
	questions, err := c.FetchQuestions(context.Background(), "DEV", 10, 20)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, int64(101), questions[0].ID)
	assert.Equal(t, "How do I reset?", questions[0].Title)
}

func TestClient_QuestionDetails_WrappedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/questions/1.0/question/101", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 101,
			"title": "How do I reset?",
			"body": {"content": "<p>details</p>"},
			"comments": [{"author":{"fullName":"Ann"},"body":"nice","dateCommented":1434369600000}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", nil)
	q, err := c.QuestionDetails(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "<p>details</p>", q.Body.Content)
	require.Len(t, q.Comments, 1)
	assert.Equal(t, "nice", q.Comments[0].Body.Content)
}

func TestClient_Answers_BothShapes(t *testing.T) {
	payloads := map[string]string{
		"bare":     `[{"id":7,"body":"answer"}]`,
		"envelope": `{"results":[{"id":7,"body":"answer"}]}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rest/questions/1.0/question/101/answers", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(payload))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "admin", "secret", nil)
			page, err := c.Answers(context.Background(), 101)
			require.NoError(t, err)
			require.Len(t, page.Results, 1)
			assert.Equal(t, int64(7), page.Results[0].ID)
		})
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "wrong", nil)
	_, err := c.QuestionDetails(context.Background(), 101)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
