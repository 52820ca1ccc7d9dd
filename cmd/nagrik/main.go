package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/archive"
	"github.com/nagrik-ai/nagrik/pkg/core/gateway/gemini"
	"github.com/nagrik-ai/nagrik/pkg/core/settings"
	"github.com/nagrik-ai/nagrik/pkg/core/tts"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

const (
	defaultTimeout = 90 * time.Second

	// chatHistoryWindow is how many prior turns accompany a new message.
	chatHistoryWindow = 5
)

type appConfig struct {
	APIKey   string
	DataDir  string
	Language string
	Voice    string
	Timeout  time.Duration
	Debug    bool
}

func parseAppConfig(args []string, getenv func(string) string) (appConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := appConfig{}
	fs := flag.NewFlagSet("nagrik", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIKey, "api-key", "", "Gemini API key (or GEMINI_API_KEY / GOOGLE_API_KEY)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "directory for the local archive (default ~/.nagrik)")
	fs.StringVar(&cfg.Language, "language", "", "override the preferred reply language for this run")
	fs.StringVar(&cfg.Voice, "voice", "", "override the voice profile for this run")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per-request timeout (e.g. 90s)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log live wire traffic to stderr")

	if err := fs.Parse(args); err != nil {
		return appConfig{}, err
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = strings.TrimSpace(getenv("GEMINI_API_KEY"))
	}
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(getenv("GOOGLE_API_KEY"))
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = strings.TrimSpace(getenv("NAGRIK_DATA_DIR"))
	}
	if cfg.DataDir == "" {
		if home := strings.TrimSpace(getenv("HOME")); home != "" {
			cfg.DataDir = filepath.Join(home, ".nagrik")
		} else {
			cfg.DataDir = ".nagrik"
		}
	}

	if err := validateAppConfig(cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func validateAppConfig(cfg appConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.New("missing API key (set GEMINI_API_KEY or pass -api-key)")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if cfg.Language != "" {
		if _, err := types.ParseLanguage(cfg.Language); err != nil {
			return fmt.Errorf("invalid language %q", cfg.Language)
		}
	}
	if cfg.Voice != "" {
		if _, err := types.ParseVoiceProfile(cfg.Voice); err != nil {
			return fmt.Errorf("invalid voice %q", cfg.Voice)
		}
	}
	return nil
}

// app bundles the long-lived pieces the command loop works against.
type app struct {
	cfg      appConfig
	client   *gemini.Client
	store    archive.Store
	manager  *archive.Manager
	settings types.UserSettings
	speech   *tts.Service
	player   *tts.DevicePlayer

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// pendingAttachment rides along with the next chat message.
	pendingAttachment *types.Attachment
}

func newApp(ctx context.Context, cfg appConfig, in io.Reader, out, errOut io.Writer) (*app, error) {
	store, err := archive.NewFileStore(cfg.DataDir, archive.StorageLimitBytes)
	if err != nil {
		return nil, err
	}

	userSettings := settings.Load(store)
	if cfg.Language != "" {
		lang, _ := types.ParseLanguage(cfg.Language)
		userSettings.PreferredLanguage = lang
	}
	if cfg.Voice != "" {
		voice, _ := types.ParseVoiceProfile(cfg.Voice)
		userSettings.VoiceName = voice
	}

	client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Debug: cfg.Debug})
	if err != nil {
		return nil, err
	}

	player := tts.NewDevicePlayer()
	return &app{
		cfg:      cfg,
		client:   client,
		store:    store,
		manager:  archive.NewManager(store),
		settings: userSettings,
		speech:   tts.NewService(client, player),
		player:   player,
		in:       in,
		out:      out,
		errOut:   errOut,
	}, nil
}

func initialGreeting(s types.UserSettings) types.ChatMessage {
	content := fmt.Sprintf(`### Namaste %s!
I am **NagrikAi**, your legal assistant.

I can help you with:
- **Filing FIRs & Police Complaints**
- **Property & Tenant Disputes**
- **Cyber Crime Reporting**

I will respond in **%s**. **How can I help you today?**`, s.UserName, s.PreferredLanguage)
	return types.ChatMessage{
		Role:      types.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func (a *app) reportSave(result archive.SaveResult) {
	switch result.Status {
	case archive.SaveOK:
	case archive.SaveQuotaExceeded:
		fmt.Fprintln(a.errOut, "Error saving chat: local storage limit reached. Please clear old sessions.")
	default:
		fmt.Fprintln(a.errOut, "Error saving chat history. Local storage may be full or restricted.")
	}
}

func (a *app) run(ctx context.Context) error {
	if _, ok := a.manager.ActiveSession(); !ok {
		a.manager.CreateSession(initialGreeting(a.settings))
		a.reportSave(a.manager.Save())
	}

	if active, ok := a.manager.ActiveSession(); ok && len(active.Messages) > 0 {
		renderMessage(a.out, active.Messages[len(active.Messages)-1])
	}
	fmt.Fprintf(a.out, "Archive: %d saved consultation(s), %.1f%% of local storage used.\n", len(a.manager.Sessions()), a.manager.UsagePercent())
	fmt.Fprintln(a.out, "Type /help for commands, /exit to quit.")

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(a.out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "/exit", "/quit":
			a.speech.Stop()
			fmt.Fprintln(a.out, "bye")
			return nil
		}

		if strings.HasPrefix(line, "/") {
			if err := a.handleCommand(ctx, line, scanner); err != nil {
				fmt.Fprintf(a.errOut, "%v\n", err)
			}
			continue
		}

		a.chatTurn(ctx, line)
	}
}

// chatTurn sends one user message and streams the reply. Failures leave an
// apologetic assistant message in the transcript instead of losing the
// turn, and an authentication fault adds a hint about the key.
func (a *app) chatTurn(ctx context.Context, text string) {
	a.speech.Stop()

	active, _ := a.manager.ActiveSession()
	history := active.Messages
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	userMessage := types.ChatMessage{
		Role:       types.RoleUser,
		Content:    text,
		Timestamp:  time.Now(),
		Attachment: a.pendingAttachment,
	}
	a.pendingAttachment = nil
	a.reportSave(a.manager.AppendMessage(userMessage))

	turnCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var printed int
	reply, err := a.client.CompleteChat(turnCtx, text, history, a.settings.PreferredLanguage, gemini.ChatOptions{
		DeepThinking: a.settings.DeepThinkingDefault,
		Attachment:   userMessage.Attachment,
		OnChunk: func(fullText string, _ []types.GroundingSource) {
			if len(fullText) > printed {
				fmt.Fprint(a.out, fullText[printed:])
				printed = len(fullText)
			}
		},
	})
	fmt.Fprintln(a.out)

	if err != nil {
		if core.KindOf(err) == core.ErrAuthentication {
			fmt.Fprintln(a.errOut, "The API rejected the credential. Set a valid GEMINI_API_KEY and restart.")
		} else {
			fmt.Fprintf(a.errOut, "chat error: %v\n", err)
		}
		a.reportSave(a.manager.AppendMessage(types.ChatMessage{
			Role:      types.RoleAssistant,
			Content:   "Connection error. Please try again.",
			Timestamp: time.Now(),
		}))
		return
	}

	renderGrounding(a.out, reply.GroundingSources)
	a.reportSave(a.manager.AppendMessage(types.ChatMessage{
		Role:             types.RoleAssistant,
		Content:          reply.Text,
		Timestamp:        time.Now(),
		GroundingSources: reply.GroundingSources,
	}))
}

func main() {
	_ = godotenv.Load()

	cfg, err := parseAppConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nagrik: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nagrik: %v\n", err)
		os.Exit(1)
	}
	defer a.player.Close()

	if err := a.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "nagrik: %v\n", err)
		os.Exit(1)
	}
}
