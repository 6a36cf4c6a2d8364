package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*bedrockruntime.InvokeModelOutput)
	return out, args.Error(1)
}

func TestBedrockGenerateText(t *testing.T) {
	invoker := new(MockInvoker)
	invoker.On("InvokeModel", mock.Anything, mock.MatchedBy(func(in *bedrockruntime.InvokeModelInput) bool {
		var req anthropicRequest
		if err := json.Unmarshal(in.Body, &req); err != nil {
			return false
		}
		return *in.ModelId == "model-x" &&
			req.AnthropicVersion == anthropicVersion &&
			req.MaxTokens == 250 &&
			len(req.Messages) == 1 && req.Messages[0].Content == "hello"
	})).Return(&bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"Hi "},{"type":"text","text":"there"}]}`),
	}, nil)

	out, err := NewBedrockProvider(invoker, "model-x").GenerateText(context.Background(), "hello", 250)
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)
	invoker.AssertExpectations(t)
}

func TestBedrockErrors(t *testing.T) {
	invoker := new(MockInvoker)
	invoker.On("InvokeModel", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDeniedException")).Once()
	_, err := NewBedrockProvider(invoker, "").GenerateText(context.Background(), "x", 0)
	assert.ErrorContains(t, err, "AccessDeniedException")

	invoker.On("InvokeModel", mock.Anything, mock.Anything).Return(&bedrockruntime.InvokeModelOutput{Body: []byte(`{"content":[]}`)}, nil).Once()
	_, err = NewBedrockProvider(invoker, "").GenerateText(context.Background(), "x", 0)
	assert.ErrorContains(t, err, "no text content")
}

func TestOllamaGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, 42, req.Options.NumPredict)
		assert.False(t, req.Stream)
		json.NewEncoder(w).Encode(generateResponse{Response: "generated", Done: true})
	}))
	defer srv.Close()

	out, err := NewOllamaProvider(srv.URL, "llama3").GenerateText(context.Background(), "p", 42)
	require.NoError(t, err)
	assert.Equal(t, "generated", out)
}

func TestOpenAIGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 64, payload["max_tokens"])
		w.Write([]byte(`{"choices":[{"message":{"content":"answer"}}]}`))
	}))
	defer srv.Close()

	out, err := NewOpenAIProvider(srv.URL, "sk-test", "").GenerateText(context.Background(), "q", 64)
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestOpenAIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(srv.URL, "", "").GenerateText(context.Background(), "q", 0)
	assert.ErrorContains(t, err, "429")
}

func TestOpenAIErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(srv.URL+"/", "bad", "").GenerateText(context.Background(), "q", 0)
	assert.ErrorContains(t, err, "401")
	assert.ErrorContains(t, err, "Incorrect API key provided")
}

func TestOpenAIOmitsZeroMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotContains(t, payload, "max_tokens")
		assert.Equal(t, defaultOpenAIModel, payload["model"])
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(srv.URL, "", "").GenerateText(context.Background(), "q", 0)
	assert.ErrorContains(t, err, "no choices")
}

func TestOllamaMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'llama3' not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").GenerateText(context.Background(), "p", 10)
	assert.ErrorContains(t, err, "model 'llama3' not found")
}
