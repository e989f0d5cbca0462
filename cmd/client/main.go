package main

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omanicare/voice-client/internal/api"
	"github.com/omanicare/voice-client/internal/audio"
	"github.com/omanicare/voice-client/internal/chat"
	"github.com/omanicare/voice-client/internal/config"
	"github.com/omanicare/voice-client/internal/locale"
	"github.com/omanicare/voice-client/internal/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("backend_url", cfg.BackendURL).
		Str("language", cfg.Language).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice client starting")

	client := api.NewClient(cfg)
	session := chat.NewSession(client, locale.Parse(cfg.Language))
	recorder := audio.NewRecorder(
		audio.NewMicSource(cfg.SampleRate, cfg.Channels, cfg.ChunkSeconds),
		time.Duration(cfg.ChunkSeconds)*time.Second,
	)

	// Local observability server: liveness, backend readiness, metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(func(ctx context.Context) (bool, error) {
		if err := client.Health(ctx); err != nil {
			return false, err
		}
		return true, nil
	}))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Str("port", cfg.Port).Msg("Prometheus metrics enabled at /metrics")
	}

	go func() {
		server := &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("Observability server failed")
		}
	}()

	runREPL(client, session, recorder)

	logger.Info().Msg("Voice client exited")
}

func runREPL(client *api.Client, session *chat.Session, recorder *audio.Recorder) {
	fmt.Println("OMANI Therapist voice client. Type a message, or /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			reply := session.SendText(context.Background(), line)
			fmt.Println(reply)
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		cmd := parts[0]
		arg := ""
		if len(parts) == 2 {
			arg = strings.TrimSpace(parts[1])
		}

		switch cmd {
		case "/quit", "/exit":
			return
		case "/help":
			printHelp()
		case "/lang":
			switchLanguage(session, arg)
		case "/record":
			startRecording(session, recorder)
		case "/stop":
			stopAndSubmit(session, recorder)
		case "/send":
			sendFile(session, recorder, arg)
		case "/upload":
			uploadFile(client, session, recorder, arg)
		case "/status":
			showStatus(client)
		case "/history":
			showHistory(client)
		case "/clear":
			clearChat(session)
		case "/tts":
			synthesize(client, session, arg)
		case "/emergency":
			emergency(client, session)
		default:
			fmt.Printf("Unknown command %s. Type /help for commands.\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  /record            start recording from the microphone
  /stop              stop recording and submit the voice message
  /send <file>       submit an audio file as a voice message
  /upload <file>     upload an audio file without processing it
  /status            show backend system status
  /history           show server-side conversation history
  /clear             clear the conversation
  /tts <text>        synthesize text to speech, saved next to the binary
  /emergency         show emergency contacts and log a crisis event
  /lang <arabic|english>  switch language
  /quit              exit`)
}

func switchLanguage(session *chat.Session, arg string) {
	switch arg {
	case "arabic", "english":
		session.SetLanguage(locale.Parse(arg))
		fmt.Printf("Language set to %s\n", arg)
	default:
		fmt.Println("Usage: /lang <arabic|english>")
	}
}

func startRecording(session *chat.Session, recorder *audio.Recorder) {
	if err := recorder.Start(); err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	fmt.Println(locale.T(session.Language(), locale.KeyRecording))
	fmt.Println("Type /stop to finish.")
}

func stopAndSubmit(session *chat.Session, recorder *audio.Recorder) {
	payload, err := recorder.Stop()
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	submit(session, recorder, payload)
}

func sendFile(session *chat.Session, recorder *audio.Recorder, path string) {
	if path == "" {
		fmt.Println("Usage: /send <file>")
		return
	}

	payload, err := acceptFile(recorder, path)
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	submit(session, recorder, payload)
}

func submit(session *chat.Session, recorder *audio.Recorder, payload *audio.Payload) {
	if err := recorder.BeginSubmit(); err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}

	fmt.Println(locale.T(session.Language(), locale.KeyProcessingAudio))
	reply, err := session.SubmitAudio(context.Background(), payload)
	recorder.Finish(err)
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	fmt.Println(reply)
}

func uploadFile(client *api.Client, session *chat.Session, recorder *audio.Recorder, path string) {
	if path == "" {
		fmt.Println("Usage: /upload <file>")
		return
	}

	payload, err := acceptFile(recorder, path)
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	defer recorder.Finish(nil)

	if err := recorder.BeginSubmit(); err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}

	result, err := client.Upload(context.Background(), payload)
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}
	fmt.Printf("Uploaded, file id: %s\n", result.FileID)
}

// acceptFile reads a local file and validates it through the recorder's
// upload path, with the declared MIME type inferred from the extension the
// way a browser would supply it
func acceptFile(recorder *audio.Recorder, path string) (*audio.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	declared := mime.TypeByExtension(filepath.Ext(path))
	return recorder.AcceptFile(filepath.Base(path), declared, data)
}

func showStatus(client *api.Client) {
	status, err := client.SystemStatus(context.Background())
	if err != nil {
		fmt.Printf("Status unavailable: %v\n", err)
		return
	}
	fmt.Printf("STT ready: %t\nLLM ready: %t\nServices healthy: %t\nLast check: %s\n",
		status.STTReady, status.LLMReady, status.ServicesHealthy, status.LastCheck)
}

func showHistory(client *api.Client) {
	history, err := client.History(context.Background())
	if err != nil {
		fmt.Printf("History unavailable: %v\n", err)
		return
	}
	for _, m := range history.Messages {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Role, m.Content)
	}
}

func clearChat(session *chat.Session) {
	if err := session.Clear(context.Background()); err != nil {
		fmt.Printf("Server-side history may not be cleared: %v\n", err)
	}
	fmt.Println("Conversation cleared.")
}

func synthesize(client *api.Client, session *chat.Session, text string) {
	if text == "" {
		fmt.Println("Usage: /tts <text>")
		return
	}

	data, err := client.Synthesize(context.Background(), text, string(session.Language()))
	if err != nil {
		fmt.Println(chat.UserMessage(err, session.Language()))
		return
	}

	name := fmt.Sprintf("tts-%s.wav", uuid.New().String())
	if err := os.WriteFile(name, data, 0o644); err != nil {
		fmt.Printf("Could not save audio: %v\n", err)
		return
	}
	fmt.Printf("Saved synthesized speech to %s\n", name)
}

func emergency(client *api.Client, session *chat.Session) {
	fmt.Println(locale.T(session.Language(), locale.KeyEmergencyInfo))

	if err := client.ReportEmergency(context.Background(), "emergency contacts requested"); err != nil {
		logger := observability.GetLogger()
		logger.Warn().Err(err).Msg("Failed to report emergency event")
	}
}
