package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/slidex/slidex/cmd/slidex/internal/config"
	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/hub"
	"github.com/slidex/slidex/pkg/kv"
	"github.com/slidex/slidex/pkg/llm"
	"github.com/slidex/slidex/pkg/server"
	"github.com/slidex/slidex/pkg/storage"
)

var serveFlags struct {
	addr    string
	dataDir string
	backend string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presentation generation server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "data directory (default ~/.local/share equivalent)")
	serveCmd.Flags().StringVar(&serveFlags.backend, "backend", "", "model backend: openai or gemini (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	addr := serveFlags.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	dataDir := serveFlags.dataDir
	if dataDir == "" {
		dataDir = cfg.Server.DataDir
	}
	if dataDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("cannot determine data directory: %w", err)
		}
		dataDir = filepath.Join(base, "slidex")
	}

	source, backend, err := buildSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	db, err := kv.NewBadger(kv.BadgerOptions{Dir: filepath.Join(dataDir, "db")})
	if err != nil {
		return fmt.Errorf("open deck database: %w", err)
	}
	defer db.Close()

	files, err := storage.NewLocal(filepath.Join(dataDir, "files"))
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}

	h := hub.New()
	defer h.Close()

	srv, err := server.New(server.Options{
		Source: source,
		Hub:    h,
		Deck:   deck.NewStore(db),
		Files:  files,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), bannerStyle.Render("slidex server"))
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render("listening"), addr)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render("backend"), backend)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render("data"), dataDir)

	httpSrv := &http.Server{Addr: addr, Handler: srv}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "err", err)
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildSource picks the model backend from flags and config.
func buildSource(ctx context.Context, cfg *config.Config) (llm.Source, string, error) {
	backend := serveFlags.backend
	if backend == "" {
		backend = cfg.Backend
	}
	switch backend {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, "", errors.New("openai.api_key is required, run 'slidex config' to check")
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		client := openai.NewClient(opts...)
		model := cfg.OpenAI.Model
		if model == "" {
			model = "gpt-4o"
		}
		return &llm.OpenAISource{Client: &client, Model: model}, "openai/" + model, nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, "", errors.New("gemini.api_key is required, run 'slidex config' to check")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			return nil, "", err
		}
		model := cfg.Gemini.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		return &llm.GeminiSource{Client: client, Model: model}, "gemini/" + model, nil
	case "":
		return nil, "", errors.New("no backend configured, set backend to openai or gemini")
	default:
		return nil, "", fmt.Errorf("unknown backend %q", backend)
	}
}
