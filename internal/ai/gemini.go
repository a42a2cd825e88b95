package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Gemini is the Backend implementation on the Gemini API. Each handle
// owns one multi-turn chat; the chat itself is created lazily on the
// first message so the grounding flag can shape its tool config.
type Gemini struct {
	client       *genai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger

	mu    sync.Mutex
	chats map[Handle]*genai.Chat
}

// NewGemini connects to the Gemini API with the given key and model.
func NewGemini(ctx context.Context, log *slog.Logger, apiKey, model, systemPrompt string) (*Gemini, error) {
	if log == nil {
		log = slog.Default()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Gemini{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       log.With(slog.String("component", "gemini")),
		chats:        map[Handle]*genai.Chat{},
	}, nil
}

// CreateSession allocates a session handle. The underlying chat is
// built on first send.
func (g *Gemini) CreateSession(_ context.Context) (Handle, error) {
	h := Handle(uuid.NewString())
	g.mu.Lock()
	g.chats[h] = nil
	g.mu.Unlock()
	return h, nil
}

// SendMessage sends one user turn on the session behind h.
func (g *Gemini) SendMessage(ctx context.Context, h Handle, text string, grounding bool) (string, error) {
	g.mu.Lock()
	chat, ok := g.chats[h]
	g.mu.Unlock()
	if !ok {
		return "", ErrSessionNotFound
	}

	if chat == nil {
		created, err := g.newChat(ctx, grounding)
		if err != nil {
			return "", fmt.Errorf("gemini chat create: %w", err)
		}
		chat = created
		g.mu.Lock()
		g.chats[h] = chat
		g.mu.Unlock()
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini send: %w", err)
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("gemini send: empty response")
	}
	return reply, nil
}

// DestroySession forgets the chat behind h.
func (g *Gemini) DestroySession(h Handle) {
	g.mu.Lock()
	delete(g.chats, h)
	g.mu.Unlock()
}

func (g *Gemini) newChat(ctx context.Context, grounding bool) (*genai.Chat, error) {
	cfg := &genai.GenerateContentConfig{}
	if g.systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.systemPrompt}},
		}
	}
	if grounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return g.client.Chats.Create(ctx, g.model, cfg, nil)
}
