// Command notifyctl is an operator tool for the notification service: it
// triggers notifications over HTTP, publishes order events to Kafka, mints
// development tokens and edits runtime settings.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	apiURL    string
	apiToken  string
	verbose   bool
	outputFmt string
)

// Config is the persisted CLI configuration.
type Config struct {
	APIURL       string   `mapstructure:"api_url"`
	APIToken     string   `mapstructure:"api_token"`
	SigningKey   string   `mapstructure:"signing_key"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	Topic        string   `mapstructure:"topic"`
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "notifyctl",
	Short:         "Operate the transactional notification service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.notifyctl.yaml)")
	pf.StringVar(&apiURL, "api-url", "", "notification API base URL")
	pf.StringVar(&apiToken, "token", "", "bearer token for the API")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&outputFmt, "output", "o", "table", "output format (table, json)")

	_ = viper.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = viper.BindPFlag("api_token", pf.Lookup("token"))

	rootCmd.AddCommand(sendCmd, publishCmd, tokenCmd, settingsCmd, healthCmd, configCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".notifyctl")
	}

	viper.SetEnvPrefix("NOTIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api_url", "http://localhost:8080")
	viper.SetDefault("kafka_brokers", []string{"localhost:9092"})
	viper.SetDefault("topic", "orders.created")

	if err := viper.ReadInConfig(); err == nil {
		logVerbose("using config file %s", viper.ConfigFileUsed())
	}
	if apiURL == "" {
		apiURL = viper.GetString("api_url")
	}
	if apiToken == "" {
		apiToken = viper.GetString("api_token")
	}
}

func loadConfig() (Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	// NOTIFY_KAFKA_BROKERS arrives as one comma-separated string.
	if len(c.KafkaBrokers) == 1 && strings.Contains(c.KafkaBrokers[0], ",") {
		c.KafkaBrokers = splitCSV(c.KafkaBrokers[0])
	}
	return c, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		c.APIToken = maskSecret(c.APIToken)
		c.SigningKey = maskSecret(c.SigningKey)
		if f := viper.ConfigFileUsed(); f != "" && outputFmt != "json" {
			fmt.Printf("Config file: %s\n", f)
		}
		return printOutput(c)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Persist a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set(args[0], args[1])
		path := viper.ConfigFileUsed()
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}
			path = home + "/.notifyctl.yaml"
		}
		if err := viper.WriteConfigAs(path); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
		fmt.Printf("Saved %s to %s\n", args[0], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		deep, _ := cmd.Flags().GetBool("deep")
		h, err := newClient(apiURL, apiToken).Health(cmd.Context(), deep)
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printOutput(h)
		}
		fmt.Printf("Status:  %s\nVersion: %s\nDB:      %s\nCache:   %s\n", h.Status, h.Version, h.DB, h.Cache)
		if h.Mail != "" {
			fmt.Printf("Mail:    %s\n", h.Mail)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("deep", false, "also check the mail transport")
}

func printOutput(v any) error {
	if outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	var flat map[string]any
	if json.Unmarshal(b, &flat) != nil {
		fmt.Println(string(b))
		return nil
	}
	for _, k := range slices.Sorted(maps.Keys(flat)) {
		fmt.Printf("%-16s %v\n", k+":", flat[k])
	}
	return nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func logVerbose(format string, args ...any) {
	if verbose {
		log.Printf("[verbose] "+format, args...)
	}
}
