package service

import (
	"context"
	"io"
)

// ChatMessage is one turn of conversation history as supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStream yields completion text chunks as they arrive. Recv returns
// io.EOF when the stream is exhausted; Close releases the underlying
// connection and may be called at any time to cancel.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionClient defines the interface for streamed chat completions.
type CompletionClient interface {
	StreamChatCompletion(ctx context.Context, systemPrompt string, messages []ChatMessage) (ChatStream, error)
}

// TranscriptionClient converts spoken audio to text.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// SpeechClient converts text to a spoken audio stream.
type SpeechClient interface {
	Speak(ctx context.Context, text, voice string) (io.ReadCloser, error)
}
