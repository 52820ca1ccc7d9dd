package gemini

import (
	"encoding/json"

	"github.com/nagrik-ai/nagrik/pkg/core/live"
)

// Wire types for the BidiGenerateContent websocket protocol. Field names
// follow the JSON the service speaks; only the subset this app uses is
// modeled.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *contentPayload   `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string          `json:"responseModalities,omitempty"`
	SpeechConfig       *wireSpeechConfig `json:"speechConfig,omitempty"`
}

type wireSpeechConfig struct {
	VoiceConfig wireVoiceConfig `json:"voiceConfig"`
}

type wireVoiceConfig struct {
	PrebuiltVoiceConfig wirePrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type wirePrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type contentPayload struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type serverEnvelope struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type modelTurn struct {
	Parts []serverPart `json:"parts"`
}

type serverPart struct {
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// decodeServerMessage translates one wire frame into the session-facing
// message. goAway frames report false; the connection closes shortly
// after and the session sees that as the channel draining.
func decodeServerMessage(data []byte) (live.ServerMessage, bool, error) {
	var env serverEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return live.ServerMessage{}, false, err
	}

	var msg live.ServerMessage
	if env.SetupComplete != nil {
		msg.SetupComplete = true
		return msg, true, nil
	}
	if env.GoAway != nil {
		return live.ServerMessage{}, false, nil
	}
	if env.ServerContent == nil {
		return live.ServerMessage{}, false, nil
	}

	sc := env.ServerContent
	msg.Interrupted = sc.Interrupted
	msg.TurnComplete = sc.TurnComplete
	if sc.InputTranscription != nil {
		msg.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		msg.OutputTranscript = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil && len(sc.ModelTurn.Parts) > 0 && sc.ModelTurn.Parts[0].InlineData != nil {
		msg.InlineAudioB64 = sc.ModelTurn.Parts[0].InlineData.Data
	}
	return msg, true, nil
}
