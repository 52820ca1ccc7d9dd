package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core/gateway/gemini"
	"github.com/nagrik-ai/nagrik/pkg/core/settings"
	"github.com/nagrik-ai/nagrik/pkg/core/tts"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

const helpText = `Commands:
  /new                 start a fresh consultation
  /sessions            list saved consultations
  /load <n>            switch to consultation n from /sessions
  /rename <name>       rename the current consultation
  /delete [n]          delete a consultation (current one by default)
  /clear               delete ALL history, keeping one fresh consultation
  /summary             summarize the current consultation
  /retry               regenerate the last reply
  /attach <path>       attach an image to the next message
  /news                fetch recent legal news headlines
  /risk <incident>     run a statutory corruption risk audit
  /speak               read the last reply aloud
  /stop                stop reading aloud
  /voice               enter live voice mode (Enter to leave)
  /settings [k v]      show or change settings
  /exit                quit`

func (a *app) handleCommand(ctx context.Context, line string, scanner *bufio.Scanner) error {
	command, arg := splitCommand(line)

	switch command {
	case "/help":
		fmt.Fprintln(a.out, helpText)
	case "/new":
		a.speech.Stop()
		session := a.manager.CreateSession(initialGreeting(a.settings))
		a.reportSave(a.manager.Save())
		renderMessage(a.out, session.Messages[0])
	case "/sessions":
		a.listSessions()
	case "/load":
		return a.loadSession(arg)
	case "/rename":
		if arg == "" {
			return fmt.Errorf("usage: /rename <name>")
		}
		result := a.manager.RenameSession(a.manager.ActiveID(), arg)
		a.reportSave(result)
		if result.OK() {
			fmt.Fprintf(a.out, "renamed to %q\n", arg)
		}
	case "/delete":
		return a.deleteSession(arg)
	case "/clear":
		a.speech.Stop()
		_, result := a.manager.ClearAll(initialGreeting(a.settings))
		a.reportSave(result)
		fmt.Fprintln(a.out, "History cleared. A fresh consultation is ready.")
	case "/summary":
		a.summarize(ctx)
	case "/retry":
		a.retryLastReply(ctx)
	case "/attach":
		return a.attachFile(arg)
	case "/news":
		a.showNews(ctx)
	case "/risk":
		if arg == "" {
			return fmt.Errorf("usage: /risk <incident description>")
		}
		a.riskAudit(ctx, arg)
	case "/speak":
		a.speakLastReply(ctx)
	case "/stop":
		a.speech.Stop()
	case "/voice":
		a.voiceMode(ctx, scanner)
	case "/settings":
		return a.settingsCommand(arg)
	default:
		return fmt.Errorf("unknown command %q (try /help)", command)
	}
	return nil
}

func splitCommand(line string) (command, arg string) {
	parts := strings.SplitN(line, " ", 2)
	command = parts[0]
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return command, arg
}

func (a *app) listSessions() {
	sessions := a.manager.Sessions()
	activeID := a.manager.ActiveID()
	for i, s := range sessions {
		marker := " "
		if s.ID == activeID {
			marker = "*"
		}
		when := time.UnixMilli(s.Timestamp).Format("02 Jan 15:04")
		fmt.Fprintf(a.out, "%s %2d. %-35s %s  (%d messages)\n", marker, i+1, s.Name, when, len(s.Messages))
	}
	fmt.Fprintf(a.out, "Storage used: %.1f%%\n", a.manager.UsagePercent())
}

// resolveSessionRef accepts either a 1-based index from /sessions or a raw
// session id.
func resolveSessionRef(sessions []types.SavedSession, ref string) (types.SavedSession, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1], nil
	}
	for _, s := range sessions {
		if s.ID == ref {
			return s, nil
		}
	}
	return types.SavedSession{}, fmt.Errorf("no session %q", ref)
}

func (a *app) loadSession(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /load <n>")
	}
	target, err := resolveSessionRef(a.manager.Sessions(), arg)
	if err != nil {
		return err
	}
	a.speech.Stop()
	session, err := a.manager.LoadSession(target.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Loaded %q (%d messages).\n", session.Name, len(session.Messages))
	if len(session.Messages) > 0 {
		renderMessage(a.out, session.Messages[len(session.Messages)-1])
	}
	return nil
}

func (a *app) deleteSession(arg string) error {
	id := a.manager.ActiveID()
	if arg != "" {
		target, err := resolveSessionRef(a.manager.Sessions(), arg)
		if err != nil {
			return err
		}
		id = target.ID
	}
	replacement, result := a.manager.DeleteSession(id, initialGreeting(a.settings))
	a.reportSave(result)
	if replacement.ID != "" {
		fmt.Fprintln(a.out, "Deleted the current consultation; started a fresh one.")
	} else {
		fmt.Fprintln(a.out, "Deleted.")
	}
	return nil
}

func (a *app) summarize(ctx context.Context) {
	active, ok := a.manager.ActiveSession()
	if !ok || len(active.Messages) <= 1 {
		fmt.Fprintln(a.out, "Nothing to summarize yet.")
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	summary, err := a.client.SummarizeSession(opCtx, active.Messages, a.settings.PreferredLanguage)
	if err != nil || summary == "" {
		fmt.Fprintln(a.out, "Failed to generate summary.")
		return
	}
	fmt.Fprintln(a.out, summary)
}

// retryLastReply rewinds the last assistant message and asks again using
// the preceding user message.
func (a *app) retryLastReply(ctx context.Context) {
	active, ok := a.manager.ActiveSession()
	if !ok {
		return
	}
	msgs := active.Messages
	if len(msgs) < 2 || msgs[len(msgs)-1].Role != types.RoleAssistant || msgs[len(msgs)-2].Role != types.RoleUser {
		fmt.Fprintln(a.out, "Nothing to regenerate.")
		return
	}
	a.speech.Stop()

	kept := msgs[:len(msgs)-1]
	lastUser := kept[len(kept)-1]
	history := kept[:len(kept)-1]
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var printed int
	reply, err := a.client.CompleteChat(opCtx, lastUser.Content, history, a.settings.PreferredLanguage, gemini.ChatOptions{
		DeepThinking: a.settings.DeepThinkingDefault,
		Attachment:   lastUser.Attachment,
		OnChunk: func(fullText string, _ []types.GroundingSource) {
			if len(fullText) > printed {
				fmt.Fprint(a.out, fullText[printed:])
				printed = len(fullText)
			}
		},
	})
	fmt.Fprintln(a.out)

	replacement := types.ChatMessage{Role: types.RoleAssistant, Timestamp: time.Now()}
	if err != nil {
		replacement.Content = "Sorry, I couldn't regenerate the response."
	} else {
		replacement.Content = reply.Text
		replacement.GroundingSources = reply.GroundingSources
		renderGrounding(a.out, reply.GroundingSources)
	}
	a.reportSave(a.manager.ReplaceMessages(append(append([]types.ChatMessage{}, kept...), replacement)))
}

func (a *app) attachFile(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /attach <path>")
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", arg, err)
	}
	mime := mimeTypeForFile(arg)
	if mime == "" {
		return fmt.Errorf("unsupported attachment type %q", filepath.Ext(arg))
	}
	a.pendingAttachment = &types.Attachment{Data: data, MIMEType: mime}
	fmt.Fprintf(a.out, "Attached %s (%d bytes); it will ride along with your next message.\n", filepath.Base(arg), len(data))
	return nil
}

func mimeTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

func (a *app) showNews(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	items, err := a.client.FetchLegalNews(opCtx)
	if err != nil || len(items) == 0 {
		fmt.Fprintln(a.out, "No headlines available right now.")
		return
	}
	for _, item := range items {
		fmt.Fprintf(a.out, "[%s] %s\n", item.Category, item.Title)
		fmt.Fprintf(a.out, "    %s, %s\n", item.Source, item.Date)
		if item.Snippet != "" {
			fmt.Fprintf(a.out, "    %s\n", item.Snippet)
		}
		if item.Link != "" {
			fmt.Fprintf(a.out, "    %s\n", item.Link)
		}
	}
}

func (a *app) riskAudit(ctx context.Context, incident string) {
	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	analysis, err := a.client.AnalyzeCorruptionRisk(opCtx, incident)
	if err != nil {
		fmt.Fprintf(a.errOut, "risk audit degraded: %v\n", err)
	}
	fmt.Fprintf(a.out, "Risk: %s (%d/100)\n%s\n", analysis.RiskLevel, analysis.RiskScore, analysis.Summary)
	for _, factor := range analysis.RiskFactors {
		fmt.Fprintf(a.out, "  %-22s %3d\n", factor.Factor, factor.Score)
	}
	if len(analysis.Steps) > 0 {
		fmt.Fprintln(a.out, "Next steps:")
		for i, step := range analysis.Steps {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, step)
		}
	}
	if len(analysis.LawsApplicable) > 0 {
		fmt.Fprintf(a.out, "Laws: %s\n", strings.Join(analysis.LawsApplicable, "; "))
	}
	for _, channel := range analysis.RecommendedChannels {
		fmt.Fprintf(a.out, "Report to: %s  %s  %s\n", channel.Agency, channel.Link, channel.Contact)
	}
}

func (a *app) speakLastReply(ctx context.Context) {
	active, ok := a.manager.ActiveSession()
	if !ok {
		return
	}
	var last *types.ChatMessage
	for i := len(active.Messages) - 1; i >= 0; i-- {
		if active.Messages[i].Role == types.RoleAssistant {
			last = &active.Messages[i]
			break
		}
	}
	if last == nil {
		fmt.Fprintln(a.out, "Nothing to read yet.")
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	err := a.speech.Speak(opCtx, last.Content, tts.SpeakOptions{
		Voice:   a.settings.VoiceName,
		Rate:    a.settings.SpeechRate,
		OnStart: func() { fmt.Fprintln(a.out, "(speaking; /stop to interrupt)") },
	})
	if err != nil {
		fmt.Fprintf(a.errOut, "speech error: %v\n", err)
	}
}

func (a *app) settingsCommand(arg string) error {
	if arg == "" {
		s := a.settings
		fmt.Fprintf(a.out, "name:     %s\n", s.UserName)
		fmt.Fprintf(a.out, "language: %s\n", s.PreferredLanguage)
		fmt.Fprintf(a.out, "voice:    %s (choose from %s)\n", s.VoiceName, joinVoices())
		fmt.Fprintf(a.out, "rate:     %.2f\n", s.SpeechRate)
		fmt.Fprintf(a.out, "search:   %v\n", s.AutoSearch)
		fmt.Fprintf(a.out, "thinking: %v\n", s.DeepThinkingDefault)
		return nil
	}

	key, value := splitCommand(arg)
	updated, err := applySetting(a.settings, key, value)
	if err != nil {
		return err
	}
	a.settings = updated
	if err := settings.Save(a.store, a.settings); err != nil {
		fmt.Fprintf(a.errOut, "settings not persisted: %v\n", err)
	}
	fmt.Fprintf(a.out, "%s updated\n", key)
	return nil
}

func applySetting(s types.UserSettings, key, value string) (types.UserSettings, error) {
	if value == "" {
		return s, fmt.Errorf("usage: /settings <name|language|voice|rate|thinking> <value>")
	}
	switch key {
	case "name":
		s.UserName = value
	case "language":
		lang, err := types.ParseLanguage(value)
		if err != nil {
			return s, err
		}
		s.PreferredLanguage = lang
	case "voice":
		voice, err := types.ParseVoiceProfile(value)
		if err != nil {
			return s, err
		}
		s.VoiceName = voice
	case "rate":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate < 0.5 || rate > 2.0 {
			return s, fmt.Errorf("rate must be a number between 0.5 and 2.0")
		}
		s.SpeechRate = rate
	case "thinking":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return s, fmt.Errorf("thinking must be true or false")
		}
		s.DeepThinkingDefault = on
	default:
		return s, fmt.Errorf("unknown setting %q", key)
	}
	return s, nil
}

func joinVoices() string {
	profiles := types.VoiceProfiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func renderMessage(out io.Writer, msg types.ChatMessage) {
	fmt.Fprintln(out, msg.Content)
	renderGrounding(out, msg.GroundingSources)
}

func renderGrounding(out io.Writer, sources []types.GroundingSource) {
	for i, source := range sources {
		fmt.Fprintf(out, "  [%d] %s  %s\n", i+1, source.Title, source.URI)
	}
}
