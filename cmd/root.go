package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "devcaliber-assistant"
)

type Config struct {
	// Directory is a path to a JSON directory snapshot. Empty means the
	// embedded demo dataset.
	Directory string `mapstructure:"directory"`
	// Store is the SQLite database path. Empty means an in-memory store.
	Store        string            `mapstructure:"store"`
	DirectoryAPI *DirectoryAPI     `mapstructure:"directory-api"`
	Aliases      []Alias           `mapstructure:"aliases"`
	AI           *AIConfig         `mapstructure:"ai"`
	Prompts      map[string]string `mapstructure:"prompts"`
}

// DirectoryAPI configures fetching the directory from the platform API
// instead of a local file.
type DirectoryAPI struct {
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
}

// Alias maps a shorthand display name to an identity, checked by the command
// interpreter before the addressable directory.
type Alias struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

type AIConfig struct {
	OpenRouter *OpenRouterConfig `mapstructure:"openrouter"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
}

type OpenRouterConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
	SiteURL    string `mapstructure:"site-url"`
	SiteName   string `mapstructure:"site-name"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "devcaliber-assistant is the role-scoped AI assistant core of the DevCaliber talent platform",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("identity", "", "identity (email) of the current user")
	rootCmd.PersistentFlags().String("role", "candidate", "role of the current user: candidate, recruiter or admin")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("identity", rootCmd.PersistentFlags().Lookup("identity"))
	viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The defaults cover everything, so a missing config file is only
		// fatal when one was requested explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// defaultAliases are the demo identities of the hosted playground, applied
// when the config file does not define its own alias table.
func defaultAliases() []Alias {
	return []Alias{
		{Name: "Demo Candidate", Email: "candidate@testcredential.com"},
		{Name: "Demo Recruiter", Email: "recruiter@testcredential.com"},
		{Name: "Welcome Miss/Mr Candidate", Email: "candidate@testcredential.com"},
		{Name: "Welcome Miss/Mr Recruiter", Email: "recruiter@testcredential.com"},
	}
}
