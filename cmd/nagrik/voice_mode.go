package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/live"
)

// voiceMode runs a live duplex conversation until the user presses Enter
// or the remote side closes. Text chat resumes afterwards either way.
func (a *app) voiceMode(ctx context.Context, scanner *bufio.Scanner) {
	a.speech.Stop()

	cfg := live.DefaultSessionConfig()
	cfg.Voice = a.settings.VoiceName

	fmt.Fprintln(a.out, "Connecting to secure node...")
	session, err := live.Connect(ctx, cfg, a.client, live.DeviceMedia{}, live.Callbacks{
		OnInputTranscript: func(text string) {
			fmt.Fprintf(a.out, "You: %s\n", text)
		},
		OnOutputTranscript: func(text string) {
			fmt.Fprintf(a.out, "NagrikAi: %s\n", text)
		},
		OnClose: func(err error) {
			if err != nil {
				fmt.Fprintf(a.errOut, "voice session ended: %v\n", err)
			}
		},
	})
	if err != nil {
		if core.KindOf(err) == core.ErrPermissionDenied {
			fmt.Fprintln(a.errOut, "Microphone access denied.")
		} else {
			fmt.Fprintf(a.errOut, "Could not start voice mode: %v\n", err)
		}
		return
	}
	if a.cfg.Debug {
		session.EnableDebug()
	}

	fmt.Fprintln(a.out, "Voice mode on. Speak naturally; press Enter to return to text chat.")

	// Enter ends the conversation. If the remote side drops first the
	// OnClose notice prints, and Enter still brings the prompt back.
	scanner.Scan()
	session.Close()
	<-session.Done()
	fmt.Fprintln(a.out, "Voice mode off.")
}
