// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package narrate generates an LLM-backed narrative summary of a memory,
// degrading to a plain first-N-words summary whenever no chat provider is
// configured or the provider call fails.
package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
)

// ChatProvider produces a short narrative from a prompt.
type ChatProvider interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// DefaultFirstWords bounds the non-LLM fallback summary.
const DefaultFirstWords = 60

// FirstWords returns the first n words of body, trailed by an ellipsis
// when truncated. n <= 0 uses DefaultFirstWords.
func FirstWords(body string, n int) string {
	if n <= 0 {
		n = DefaultFirstWords
	}
	words := strings.Fields(body)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}

// OllamaChatProvider calls a local Ollama server's chat endpoint, adapted
// from the teacher's multi-backend llm.Provider.Chat to the single
// narrow use memo needs: one system prompt, one user prompt, one reply.
type OllamaChatProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// DefaultChatTimeout bounds a single narrative call; narrative generation
// runs a full model forward pass per memory, so it gets more headroom
// than an embedding request.
const DefaultChatTimeout = 60 * time.Second

// NewOllamaChatProvider builds a provider against baseURL (falling back to
// OLLAMA_HOST, then http://localhost:11434) using model for every request.
func NewOllamaChatProvider(baseURL, model string, timeout time.Duration) *OllamaChatProvider {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &OllamaChatProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OllamaChatProvider) Name() string { return "ollama:" + p.model }

// Chat POSTs to {baseURL}/api/chat with stream disabled, returning the
// assistant message content.
func (p *OllamaChatProvider) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", memoerrors.Provider(memoerrors.ProviderMalformed, "cannot encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", memoerrors.Provider(memoerrors.ProviderMalformed, "cannot build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || os.IsTimeout(err) {
			return "", memoerrors.Provider(memoerrors.ProviderTimeout, "chat request timed out", err)
		}
		return "", memoerrors.Provider(memoerrors.ProviderUnavailable, "cannot reach chat provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", memoerrors.Provider(memoerrors.ProviderUnavailable,
			fmt.Sprintf("chat provider returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", memoerrors.Provider(memoerrors.ProviderMalformed, "cannot decode chat response", err)
	}
	if result.Message.Content == "" {
		return "", memoerrors.Provider(memoerrors.ProviderMalformed, "chat provider returned an empty message", nil)
	}
	return result.Message.Content, nil
}

// SystemPrompt is the fixed instruction used for every summarize call;
// it is intentionally narrow so small local models stay on task.
const SystemPrompt = "Summarize the following engineering memory in two or three sentences. Be concrete and avoid restating the title."

// Summarize returns an LLM narrative for title/body when provider is
// non-nil and reachable, degrading to FirstWords on any provider error.
func Summarize(ctx context.Context, provider ChatProvider, title, body string, firstWords int) (text string, usedLLM bool) {
	if provider == nil {
		return FirstWords(body, firstWords), false
	}
	prompt := fmt.Sprintf("Title: %s\n\n%s", title, body)
	reply, err := provider.Chat(ctx, SystemPrompt, prompt)
	if err != nil {
		return FirstWords(body, firstWords), false
	}
	return strings.TrimSpace(reply), true
}
