package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

const speechProvider = "gcp_speech"

// Transcription is the text of an utterance and its length.
type Transcription struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcription, error)
	Close() error
}

type SpeechConfig struct {
	LanguageCode string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
}

type speechService struct {
	log        *logger.Logger
	client     *speech.Client
	cfg        SpeechConfig
	maxRetries int
}

func NewSpeech(log *logger.Logger, cfg SpeechConfig) (Transcriber, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}

	c, err := speech.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &speechService{
		log:        log.With("service", "gcp.Speech"),
		client:     c,
		cfg:        cfg,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcription, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.cfg.Timeout)
	defer cancel()

	if len(audio) == 0 {
		return nil, pkgerrors.NewProviderError(speechProvider, "transcribe", fmt.Errorf("empty audio"))
	}
	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               s.cfg.LanguageCode,
			Model:                      s.cfg.Model,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			Encoding:                   InferEncoding(mimeType),
		},
		Audio: &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	resp, err := s.retry(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, pkgerrors.NewProviderError(speechProvider, "transcribe", err)
	}
	return parseTranscription(resp), nil
}

// InferEncoding maps a MIME type to a recognition encoding. Unknown types are
// left for the API to detect.
func InferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func parseTranscription(resp *speechpb.LongRunningRecognizeResponse) *Transcription {
	out := &Transcription{}
	if resp == nil {
		return out
	}
	var full strings.Builder
	var lastEnd float64
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
		for _, w := range alt.Words {
			if w == nil {
				continue
			}
			if end := durToSec(w.EndTime); end > lastEnd {
				lastEnd = end
			}
		}
		if end := durToSec(r.ResultEndTime); end > lastEnd {
			lastEnd = end
		}
	}
	out.Text = full.String()
	out.DurationSeconds = lastEnd
	if out.DurationSeconds == 0 {
		out.DurationSeconds = durToSec(resp.TotalBilledTime)
	}
	return out
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}

func (s *speechService) retry(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		s.log.Warn("speech call failed, retrying", "attempt", attempt+1, "code", code.String())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}
