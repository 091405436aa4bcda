package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minutier/minutier/internal/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler func(req map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, content := handler(req)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestSearch_SendsPromptsAndReturnsAnswer(t *testing.T) {
	var gotMessages []any
	server := chatServer(t, func(req map[string]any) (int, string) {
		gotMessages = req["messages"].([]any)
		assert.Equal(t, "test-model", req["model"])
		return http.StatusOK, "the deadline is Friday"
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "test-model"})
	answer, err := c.Search(context.Background(), "alice: ship by Friday", "when is the deadline?")
	require.NoError(t, err)
	assert.Equal(t, "the deadline is Friday", answer)

	require.Len(t, gotMessages, 2)
	system := gotMessages[0].(map[string]any)
	user := gotMessages[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, assistant.SearchSystemPrompt(), system["content"])
	assert.Equal(t, assistant.BuildSearchPrompt("alice: ship by Friday", "when is the deadline?"), user["content"])
}

func TestSummarize_DecodesStructuredOutput(t *testing.T) {
	server := chatServer(t, func(req map[string]any) (int, string) {
		rf, ok := req["response_format"].(map[string]any)
		require.True(t, ok, "summary requests must constrain the response format")
		assert.Equal(t, "json_object", rf["type"])
		return http.StatusOK, `{"key_points":["budget agreed"],"decisions":["hire two"],"action_items":[{"description":"draft offer","assignee":"bob"}]}`
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m"})
	summary, err := c.Summarize(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, []string{"budget agreed"}, summary.KeyPoints)
	assert.Equal(t, []string{"hire two"}, summary.Decisions)
	require.Len(t, summary.ActionItems, 1)
	assert.Equal(t, "draft offer", summary.ActionItems[0].Description)
	assert.Equal(t, "bob", summary.ActionItems[0].Assignee)
}

func TestSummarize_StripsCodeFence(t *testing.T) {
	server := chatServer(t, func(req map[string]any) (int, string) {
		return http.StatusOK, "```json\n{\"key_points\":[\"a\"],\"decisions\":[],\"action_items\":[]}\n```"
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m"})
	summary, err := c.Summarize(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, summary.KeyPoints)
}

func TestSummarize_MalformedOutput(t *testing.T) {
	server := chatServer(t, func(req map[string]any) (int, string) {
		return http.StatusOK, "Sure! Here are the key points: ..."
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m"})
	_, err := c.Summarize(context.Background(), "transcript")
	assert.ErrorIs(t, err, assistant.ErrParseFailure)
}

func TestGenerateTitle_TrimsQuotes(t *testing.T) {
	server := chatServer(t, func(req map[string]any) (int, string) {
		return http.StatusOK, "\"Q3 Budget Review\"\n"
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m"})
	title, err := c.GenerateTitle(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Budget Review", title)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := chatServer(t, func(req map[string]any) (int, string) {
		attempts++
		if attempts < 2 {
			return http.StatusBadGateway, ""
		}
		return http.StatusOK, "ok"
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m", MaxRetries: 2})
	answer, err := c.Search(context.Background(), "t", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, 2, attempts)
}

func TestComplete_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := chatServer(t, func(req map[string]any) (int, string) {
		attempts++
		return http.StatusUnauthorized, ""
	})
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "bad", Model: "m", MaxRetries: 3})
	_, err := c.Search(context.Background(), "t", "q")
	require.Error(t, err)
	assert.False(t, errors.Is(err, assistant.ErrTimeout))
	assert.Equal(t, 1, attempts)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	c := NewChatClient(ChatConfig{URL: server.URL, APIKey: "key", Model: "m"})
	_, err := c.Search(context.Background(), "t", "q")
	assert.ErrorIs(t, err, assistant.ErrParseFailure)
}
