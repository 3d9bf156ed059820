package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/praxis-labs/lorebase/internal/api"
	"github.com/praxis-labs/lorebase/internal/service"
)

type SpeechHandler struct {
	speech service.SpeechClient
	audio  service.TranscriptionClient
}

func NewSpeechHandler(speech service.SpeechClient, audio service.TranscriptionClient) *SpeechHandler {
	return &SpeechHandler{speech: speech, audio: audio}
}

type SpeakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Speak synthesizes the given text and streams back MP3 audio.
func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		api.Error(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := h.speech.Speak(r.Context(), req.Text, req.Voice)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		log.Printf("speak: audio stream aborted: %v", err)
	}
}

// Transcribe accepts an uploaded audio file and returns its transcript.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		api.Error(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		api.Error(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	text, err := h.audio.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"text": text, "success": true})
}
