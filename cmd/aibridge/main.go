package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/overlordtm/aibridge/internal/build"
	"github.com/overlordtm/aibridge/pkg/client"
	"github.com/overlordtm/aibridge/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg := client.DefaultConfig()
	if os.Getenv("AIBRIDGE_PROVIDER") != "" {
		cfg.Provider = os.Getenv("AIBRIDGE_PROVIDER")
	}
	if os.Getenv("AIBRIDGE_BASE_URL") != "" {
		cfg.BaseURL = os.Getenv("AIBRIDGE_BASE_URL")
	}

	var (
		prompt           string
		console          bool
		verbose          bool
		temperature      float64
		topP             float64
		maxTokens        int
		frequencyPenalty float64
		presencePenalty  float64
	)
	rootCmd := &cobra.Command{
		Use:     "aibridge",
		Version: build.Version,
		Short:   "aibridge is a uniform CLI for chat completion APIs",
		Long:    "Send one-shot prompts to OpenRouter or Gemini through a single request shape",
		Run: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("temperature") {
				cfg.Temperature = lo.ToPtr(temperature)
			}
			if cmd.Flags().Changed("top-p") {
				cfg.TopP = lo.ToPtr(topP)
			}
			if cmd.Flags().Changed("max-tokens") {
				cfg.MaxTokens = lo.ToPtr(maxTokens)
			}
			if cmd.Flags().Changed("frequency-penalty") {
				cfg.FrequencyPenalty = lo.ToPtr(frequencyPenalty)
			}
			if cmd.Flags().Changed("presence-penalty") {
				cfg.PresencePenalty = lo.ToPtr(presencePenalty)
			}
			if cfg.APIKey == "" {
				cfg.APIKey = os.Getenv(strings.ToUpper(cfg.Provider) + "_API_KEY")
			}
			if console {
				startConsole(cfg)
				return
			}
			log, err := newLogger(verbose)
			if err != nil {
				panic(err)
			}
			if err := runOnce(cfg, prompt, log); err != nil {
				log.Fatal("completion failed", zap.Error(err))
			}
			_ = log.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfg.Provider, "provider", "P", cfg.Provider, "Provider to talk to (openrouter, gemini)")
	rootCmd.PersistentFlags().StringVarP(&cfg.APIKey, "key", "k", cfg.APIKey, "API key, defaults to $<PROVIDER>_API_KEY")
	rootCmd.PersistentFlags().StringVarP(&cfg.Model, "model", "m", cfg.Model, "Model name, defaults to the provider's default")
	rootCmd.PersistentFlags().StringVarP(&prompt, "prompt", "p", "", "Prompt to send")
	rootCmd.PersistentFlags().StringVarP(&cfg.SystemMessage, "system", "s", cfg.SystemMessage, "System message prepended to every request")
	rootCmd.PersistentFlags().StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Override the provider base URL")
	rootCmd.PersistentFlags().DurationVarP(&cfg.Timeout, "timeout", "t", cfg.Timeout, "Per-request timeout")
	rootCmd.PersistentFlags().IntVar(&cfg.RetryAttempts, "retry-attempts", cfg.RetryAttempts, "Retries after the first attempt")
	rootCmd.PersistentFlags().DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Fixed delay between retries")
	rootCmd.PersistentFlags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (0.0 to 2.0)")
	rootCmd.PersistentFlags().Float64Var(&topP, "top-p", 0, "Nucleus sampling mass (0.0 to 1.0)")
	rootCmd.PersistentFlags().IntVar(&maxTokens, "max-tokens", 0, "Completion token cap")
	rootCmd.PersistentFlags().Float64Var(&frequencyPenalty, "frequency-penalty", 0, "Frequency penalty (-2.0 to 2.0)")
	rootCmd.PersistentFlags().Float64Var(&presencePenalty, "presence-penalty", 0, "Presence penalty (-2.0 to 2.0)")
	rootCmd.PersistentFlags().StringSliceVarP(&cfg.Vars, "var", "V", []string{}, "name=value substitutions for $name references in the prompt")
	rootCmd.PersistentFlags().BoolVarP(&console, "console", "c", false, "Start the interactive console")
	rootCmd.PersistentFlags().BoolVarP(&cfg.RawJSONOutput, "raw", "r", false, "Print the raw provider response instead of the extracted text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	err := rootCmd.Execute()
	if err != nil {
		panic(err)
	}
}

func runOnce(cfg client.Config, prompt string, log *zap.Logger) error {
	c, err := client.NewClient(cfg, log)
	if err != nil {
		return err
	}
	prompt = util.ExpandVars(prompt, util.SliceToMap(cfg.Vars))
	if cfg.RawJSONOutput {
		raw, err := c.CompleteRaw(context.Background(), prompt)
		if err != nil {
			return err
		}
		pretty, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	}
	res, err := c.Complete(context.Background(), prompt)
	if err != nil {
		return err
	}
	fmt.Println(res.Text)
	log.Debug("completion finished",
		zap.String("model", res.Model),
		zap.Int("promptTokens", res.Usage.PromptTokens),
		zap.Int("completionTokens", res.Usage.CompletionTokens),
		zap.Int("totalTokens", res.Usage.TotalTokens))
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(lo.If(verbose, zapcore.DebugLevel).Else(zapcore.WarnLevel))
	return logCfg.Build()
}

func startConsole(cfg client.Config) {
	console, err := client.NewConsole(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	p := tea.NewProgram(console)

	if _, err := p.Run(); err != nil {
		panic(err)
	}
}
