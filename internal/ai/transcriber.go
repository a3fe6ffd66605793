package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
)

type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
}

type Transcriber struct {
	client *openai.Client
	model  string
}

func NewTranscriber(apiKey, model string) *Transcriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Transcribe submits the audio bytes to the Whisper API requesting verbose
// output. The bytes pass through a temporary file that is removed on every
// path, success or failure.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, filename string) (*TranscriptionResult, error) {
	tmpFile, err := os.CreateTemp("", "audioscribe-*"+filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("create temp audio file failed: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return nil, fmt.Errorf("write temp audio file failed: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp audio file failed: %w", err)
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: tmpPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, &UpstreamError{Service: "transcriber", Err: err}
	}

	return &TranscriptionResult{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
