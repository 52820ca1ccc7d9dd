package gemini

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/live"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// OpenLiveSession dials the bidirectional voice endpoint and performs the
// setup handshake. The returned channel is ready to stream microphone
// chunks; the first inbound message will be the setup acknowledgement.
func (c *Client) OpenLiveSession(ctx context.Context, cfg live.SessionConfig) (live.Channel, error) {
	endpoint := liveEndpoint + "?key=" + url.QueryEscape(c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, core.NewRemoteUnavailableError("cannot reach live endpoint", err)
	}

	ch := &liveChannel{
		conn:  conn,
		msgs:  make(chan live.ServerMessage, 32),
		debug: c.debug,
	}

	setup := setupMessage{Setup: setupPayload{
		Model: "models/" + liveModel,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &wireSpeechConfig{
				VoiceConfig: wireVoiceConfig{
					PrebuiltVoiceConfig: wirePrebuiltVoice{VoiceName: string(cfg.Voice)},
				},
			},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}}
	if cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &contentPayload{
			Parts: []textPart{{Text: cfg.SystemInstruction}},
		}
	}
	if err := ch.writeJSON(setup); err != nil {
		conn.Close()
		return nil, mapError("live setup", err)
	}

	go ch.readLoop()
	return ch, nil
}

// liveChannel carries one live voice connection. Writes are serialized
// because the websocket allows a single concurrent writer.
type liveChannel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	msgs    chan live.ServerMessage
	closed  atomic.Bool
	debug   bool

	errMu sync.Mutex
	err   error
}

func (ch *liveChannel) Send(dataB64, mimeType string) error {
	return ch.writeJSON(realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{MIMEType: mimeType, Data: dataB64}},
		},
	})
}

func (ch *liveChannel) Messages() <-chan live.ServerMessage { return ch.msgs }

func (ch *liveChannel) Err() error {
	ch.errMu.Lock()
	defer ch.errMu.Unlock()
	return ch.err
}

func (ch *liveChannel) Close() error {
	if ch.closed.Swap(true) {
		return nil
	}
	ch.writeMu.Lock()
	ch.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	ch.writeMu.Unlock()
	return ch.conn.Close()
}

func (ch *liveChannel) writeJSON(v any) error {
	if ch.closed.Load() {
		return core.NewGenericError("live channel closed", nil)
	}
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	if err := ch.conn.WriteJSON(v); err != nil {
		return core.NewRemoteUnavailableError("live write failed", err)
	}
	return nil
}

// readLoop is the only reader and the only closer of the message channel.
func (ch *liveChannel) readLoop() {
	defer close(ch.msgs)
	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			if !ch.closed.Load() {
				ch.setErr(core.NewRemoteUnavailableError("live connection lost", err))
			}
			return
		}
		ch.debugf("recv %d bytes", len(data))

		msg, ok, err := decodeServerMessage(data)
		if err != nil {
			ch.debugf("undecodable frame: %v", err)
			continue
		}
		if !ok {
			continue
		}
		ch.msgs <- msg
	}
}

func (ch *liveChannel) setErr(err error) {
	ch.errMu.Lock()
	if ch.err == nil {
		ch.err = err
	}
	ch.errMu.Unlock()
}

func (ch *liveChannel) debugf(format string, args ...any) {
	if !ch.debug {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(os.Stderr, "[%s] [live-wire] %s\n", timestamp, fmt.Sprintf(format, args...))
}
