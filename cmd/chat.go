package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/devcaliber/assistant/internal/ai"
	"github.com/devcaliber/assistant/internal/ai/gemini"
	"github.com/devcaliber/assistant/internal/ai/openrouter"
	"github.com/devcaliber/assistant/internal/assistant"
	"github.com/devcaliber/assistant/internal/directory"
	"github.com/devcaliber/assistant/internal/interpreter"
	"github.com/devcaliber/assistant/internal/kv"
	"github.com/devcaliber/assistant/internal/logger"
	"github.com/devcaliber/assistant/internal/messaging"
	"github.com/devcaliber/assistant/internal/quota"
	"github.com/devcaliber/assistant/internal/rag"
	"github.com/devcaliber/assistant/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive assistant session",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chat is the interactive assistant loop.
func chat(_ *cobra.Command) {
	ctx := context.Background()

	zapLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zapLogger.Fatal("getting a config", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(config, "", "  ")
	zapLogger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	identity := strings.TrimSpace(viper.GetString("identity"))
	if identity == "" {
		zapLogger.Fatal("identity is required", zap.String("hint", "pass --identity with the user's email"))
	}
	role := directory.ParseRole(viper.GetString("role"))

	zapLogger.Info("starting the assistant session",
		zap.String("version", version),
		zap.String("identity", identity),
		zap.String("role", string(role)),
	)

	core, err := composeCore(ctx, config, zapLogger)
	if err != nil {
		zapLogger.Fatal("composing the assistant", zap.Error(err))
	}
	defer core.Close()

	prompt := promptui.Prompt{Label: "you"}

	turns := make([]ai.Turn, 0, 16)
	sessionMemory := map[string]any{}

	for {
		input, err := prompt.Run()
		if err != nil {
			zapLogger.Info("exiting", zap.Error(err))
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			zapLogger.Info("exiting", zap.String("reason", "got exit from prompt"))
			return
		}

		turns = append(turns, ai.Turn{Role: ai.RoleUser, Content: input, Timestamp: time.Now().UTC()})

		reply := core.Assistant.GenerateReply(ctx, turns, role, identity, sessionMemory)
		turns = append(turns, ai.Turn{Role: ai.RoleAssistant, Content: reply, Timestamp: time.Now().UTC()})
		sessionMemory["turns"] = len(turns)

		stats := core.Ledger.UsageStats(ctx, identity, role)
		fmt.Printf("\nassistant: %s\n\n[session %s | daily %s]\n\n", reply, stats.SessionLabel, stats.DailyLabel)
	}
}

// core bundles the composed service objects. Everything is constructed once
// here and injected; no package-level singletons.
type core struct {
	Assistant *assistant.Assistant
	Ledger    *quota.Ledger
	Messages  *messaging.Store
	kvStore   kv.Store
}

func (c *core) Close() {
	if c.kvStore != nil {
		c.kvStore.Close()
	}
}

func composeCore(ctx context.Context, config *Config, zapLogger *zap.Logger) (*core, error) {
	store, err := openStore(config)
	if err != nil {
		return nil, err
	}

	provider, err := openDirectory(config, zapLogger)
	if err != nil {
		store.Close()
		return nil, err
	}

	primary, fallback, err := buildBackends(ctx, config, zapLogger)
	if err != nil {
		store.Close()
		return nil, err
	}

	aliases := config.Aliases
	if len(aliases) == 0 {
		aliases = defaultAliases()
	}
	aliasRefs := make([]directory.Ref, 0, len(aliases))
	for _, alias := range aliases {
		aliasRefs = append(aliasRefs, directory.Ref{Name: alias.Name, Email: alias.Email})
	}

	ledger := quota.NewLedger(store, zapLogger)
	messages := messaging.NewStore(store, zapLogger)
	interp := interpreter.New(messages, aliasRefs, zapLogger)
	builder := rag.NewBuilder(provider, zapLogger)

	prompts := make(map[directory.Role]string, len(config.Prompts))
	for roleName, prompt := range config.Prompts {
		prompts[directory.ParseRole(roleName)] = prompt
	}

	asst := assistant.New(assistant.Deps{
		Ledger:      ledger,
		Builder:     builder,
		Interpreter: interp,
		Primary:     primary,
		Fallback:    fallback,
		Prompts:     prompts,
		Logger:      zapLogger,
	})

	return &core{Assistant: asst, Ledger: ledger, Messages: messages, kvStore: store}, nil
}

func openStore(config *Config) (kv.Store, error) {
	if config.Store == "" {
		return kv.NewMemoryStore(), nil
	}

	store, err := kv.NewSQLiteStore(config.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func openDirectory(config *Config, zapLogger *zap.Logger) (directory.Provider, error) {
	if config.DirectoryAPI != nil && config.DirectoryAPI.URL != "" {
		token := ""
		if config.DirectoryAPI.TokenFile != "" {
			loaded, err := secrets.Load(secrets.Source{
				Name: "directory api token",
				File: config.DirectoryAPI.TokenFile,
			})
			if err != nil {
				return nil, err
			}
			token = loaded
		}
		return directory.NewHTTPProvider(config.DirectoryAPI.URL, token, zapLogger), nil
	}

	provider, err := directory.LoadFile(config.Directory)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// buildBackends resolves API keys and constructs the primary and fallback
// generative backends. At least one must be configured.
func buildBackends(ctx context.Context, config *Config, zapLogger *zap.Logger) (primary, fallback ai.Backend, err error) {
	aiConfig := config.AI
	if aiConfig == nil {
		aiConfig = &AIConfig{}
	}

	orConfig := aiConfig.OpenRouter
	if orConfig == nil {
		orConfig = &OpenRouterConfig{}
	}
	orKey, orErr := secrets.Load(secrets.Source{
		Name: "openrouter api key",
		File: orConfig.APIKeyFile,
		Env:  "OPENROUTER_API_KEY",
	})
	if orErr == nil {
		primary, err = openrouter.New(openrouter.Config{
			APIKey:     orKey,
			Model:      orConfig.Model,
			MaxRetries: orConfig.MaxRetries,
			SiteURL:    orConfig.SiteURL,
			SiteName:   orConfig.SiteName,
		}, zapLogger)
		if err != nil {
			return nil, nil, err
		}
	} else {
		zapLogger.Warn("openrouter backend not configured", zap.Error(orErr))
	}

	gemConfig := aiConfig.Gemini
	if gemConfig == nil {
		gemConfig = &GeminiConfig{}
	}
	gemKey, gemErr := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gemConfig.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if gemErr == nil {
		fallback, err = gemini.NewGenerator(ctx, gemKey, gemConfig.Model, gemConfig.MaxRetries, zapLogger)
		if err != nil {
			return nil, nil, err
		}
	} else {
		zapLogger.Warn("gemini backend not configured", zap.Error(gemErr))
	}

	if primary == nil && fallback == nil {
		return nil, nil, errors.New("no generative backend configured: set an openrouter or gemini api key")
	}

	// Promote the fallback when there is no primary.
	if primary == nil {
		primary = fallback
		fallback = nil
	}

	return primary, fallback, nil
}
