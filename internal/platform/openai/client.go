package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	providerName = "openai"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionOptions struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int
	// JSONMode forces the response to be a single JSON object.
	JSONMode bool
	// SessionTag attributes usage to an interview session.
	SessionTag string
}

// Usage is reported after every successful provider call.
type Usage struct {
	Service      string // chat|tts
	Model        string
	SessionTag   string
	InputTokens  int64
	OutputTokens int64
	Characters   int
}

// UsageRecorder receives usage reports. Implementations must not block for long
// and must swallow their own failures.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, u Usage)
}

// Client is the completion and speech-synthesis provider.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
	Synthesize(ctx context.Context, text string, voice string, sessionTag string) ([]byte, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TTSModel   string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log      *logger.Logger
	api      openai.Client
	model    string
	ttsModel string
	timeout  time.Duration
	recorder UsageRecorder
}

func NewClient(log *logger.Logger, cfg Config, recorder UsageRecorder) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = string(openai.SpeechModelTTS1)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	return &client{
		log:      log.With("service", "OpenAIClient"),
		api:      openai.NewClient(opts...),
		model:    cfg.Model,
		ttsModel: cfg.TTSModel,
		timeout:  cfg.Timeout,
		recorder: recorder,
	}, nil
}

func (c *client) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.timeout)
	defer cancel()

	model := opts.Model
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    toParams(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxOutputTokens))
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", pkgerrors.NewProviderError(providerName, "chat.completions", err)
	}
	if len(resp.Choices) == 0 {
		return "", pkgerrors.NewProviderError(providerName, "chat.completions", errors.New("no choices in response"))
	}
	content := resp.Choices[0].Message.Content
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" && content == "" {
		return "", pkgerrors.NewProviderError(providerName, "chat.completions", fmt.Errorf("model refused: %s", refusal))
	}

	c.log.Debug("chat completion",
		"model", model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	c.record(ctx, Usage{
		Service:      "chat",
		Model:        model,
		SessionTag:   opts.SessionTag,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})
	return content, nil
}

func (c *client) Synthesize(ctx context.Context, text string, voice string, sessionTag string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.timeout)
	defer cancel()

	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.NewProviderError(providerName, "audio.speech", errors.New("empty text"))
	}
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceNova)
	}
	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.ttsModel),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, pkgerrors.NewProviderError(providerName, "audio.speech", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewProviderError(providerName, "audio.speech", err)
	}

	c.record(ctx, Usage{
		Service:    "tts",
		Model:      c.ttsModel,
		SessionTag: sessionTag,
		Characters: len([]rune(text)),
	})
	return audio, nil
}

func (c *client) record(ctx context.Context, u Usage) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordUsage(context.WithoutCancel(ctx), u)
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
