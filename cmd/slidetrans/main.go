// slidetrans translates PowerPoint presentations from the command
// line, preserving layout and formatting.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/extract"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/pipeline"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/pptx"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// Version information (set via -ldflags during build)
var version = "dev"

// fileConfig is the optional YAML configuration. Environment
// variables fill in anything the file leaves empty; flags win over
// both.
type fileConfig struct {
	Provider     string `yaml:"provider"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`
	DeepLAPIKey  string `yaml:"deepl_api_key"`
}

func loadFileConfig(path string) (fileConfig, error) {
	cfg := fileConfig{}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".config", "slidetrans.yaml")
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c fileConfig) withEnv() fileConfig {
	if c.Provider == "" {
		c.Provider = os.Getenv("TRANSLATE_PROVIDER")
	}
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = os.Getenv("OPENAI_MODEL")
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o"
	}
	if c.DeepLAPIKey == "" {
		c.DeepLAPIKey = os.Getenv("DEEPL_API_KEY")
	}
	return c
}

func (c fileConfig) port() (translate.Port, error) {
	switch c.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai api key not configured (flag, config file, or OPENAI_API_KEY)")
		}
		return translate.NewOpenAIClient(c.OpenAIAPIKey, c.OpenAIModel), nil
	case "deepl":
		if c.DeepLAPIKey == "" {
			return nil, fmt.Errorf("deepl api key not configured (flag, config file, or DEEPL_API_KEY)")
		}
		return translate.NewDeepLClient(c.DeepLAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// parseTerms builds a glossary from repeated term=translation flags.
func parseTerms(terms []string) (map[string]string, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	glossary := make(map[string]string, len(terms))
	for _, t := range terms {
		term, translation, ok := strings.Cut(t, "=")
		if !ok || strings.TrimSpace(term) == "" || strings.TrimSpace(translation) == "" {
			return nil, fmt.Errorf("invalid glossary entry %q, expected term=translation", t)
		}
		glossary[strings.TrimSpace(term)] = strings.TrimSpace(translation)
	}
	return glossary, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "slidetrans",
		Short:   "Translate PowerPoint presentations while preserving formatting",
		Version: version,
		Long: `slidetrans translates the text of a .pptx presentation into another
language. Layout, shape geometry, fonts, colors, images and run-level
character formatting are left untouched; only the text changes.`,
		SilenceUsage: true,
	}
	root.AddCommand(newTranslateCmd())
	root.AddCommand(newStatsCmd())
	return root
}

func newTranslateCmd() *cobra.Command {
	var (
		lang       string
		out        string
		provider   string
		model      string
		style      string
		terms      []string
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "translate <input.pptx>",
		Short: "Translate a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			cfg, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			cfg = cfg.withEnv()
			if provider != "" {
				cfg.Provider = provider
			}
			if model != "" {
				cfg.OpenAIModel = model
			}

			port, err := cfg.port()
			if err != nil {
				return err
			}

			parsedStyle, err := translate.ParseStyle(style)
			if err != nil {
				return err
			}
			glossary, err := parseTerms(terms)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			if out == "" {
				base := strings.TrimSuffix(input, filepath.Ext(input))
				out = fmt.Sprintf("%s_translated_%s.pptx", base, strings.ToLower(strings.ReplaceAll(lang, " ", "_")))
			}

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))

			now := time.Now()
			job := &pipeline.Job{
				ID:             pipeline.ContentHashHex(data)[:20],
				Filename:       filepath.Base(input),
				TargetLanguage: lang,
				Provider:       cfg.Provider,
				Style:          parsedStyle,
				Glossary:       glossary,
				Status:         pipeline.StatusQueued,
				Phase:          "queued",
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			job.SetFileData(data)

			w := pipeline.NewWorker(map[string]translate.Port{cfg.Provider: port}, nil, nil, log, timeout)
			w.Process(cmd.Context(), job)

			snap := job.Snapshot()
			if snap.Status != pipeline.StatusCompleted {
				return fmt.Errorf("translation failed in phase %s: %s", snap.Phase, strings.Join(snap.Progress.Errors, "; "))
			}

			if err := os.WriteFile(out, job.Result(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("translated %d text units across %d slides -> %s\n",
				snap.Progress.Units, snap.Progress.Slides, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "target language (name or code)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <input>_translated_<lang>.pptx)")
	cmd.Flags().StringVar(&provider, "provider", "", "translation provider: openai or deepl")
	cmd.Flags().StringVar(&model, "model", "", "model for the openai provider")
	cmd.Flags().StringVar(&style, "style", "", "translation style: formal_technical, casual or academic")
	cmd.Flags().StringArrayVar(&terms, "term", nil, "glossary entry as term=translation (repeatable)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (default: ~/.config/slidetrans.yaml)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "per-request translation timeout")
	cmd.MarkFlagRequired("lang")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <input.pptx>",
		Short: "Print text statistics for a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			doc, err := pptx.Open(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				return err
			}
			units, err := extract.Units(doc.Deck)
			if err != nil {
				return err
			}

			shapes := 0
			for _, slide := range doc.Deck.Slides {
				shapes += len(slide.Shapes)
			}
			characters := 0
			for _, u := range units {
				characters += len(u.Text)
			}

			fmt.Printf("slides:      %d\n", len(doc.Deck.Slides))
			fmt.Printf("shapes:      %d\n", shapes)
			fmt.Printf("paragraphs:  %d\n", len(units))
			fmt.Printf("characters:  %d\n", characters)
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
