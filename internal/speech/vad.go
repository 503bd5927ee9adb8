package speech

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/keshucs12345/sprechen/internal/audio"
)

// VoiceDetector reports whether a captured frame contains speech.
type VoiceDetector interface {
	Voiced(frame []int16) bool
}

// WebRTCVAD detects speech onset with the WebRTC voice activity detector.
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCVAD creates a detector with aggressiveness mode 0-3.
func NewWebRTCVAD(mode, sampleRate int) (*WebRTCVAD, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}
	return &WebRTCVAD{vad: v, sampleRate: sampleRate}, nil
}

// Voiced processes the frame in 10 ms windows and returns true on the first
// window classified as speech.
func (w *WebRTCVAD) Voiced(frame []int16) bool {
	size := w.sampleRate / 100
	for i := 0; i+size <= len(frame); i += size {
		active, err := w.vad.Process(w.sampleRate, audio.Int16ToBytes(frame[i:i+size]))
		if err != nil {
			return false
		}
		if active {
			return true
		}
	}
	return false
}
