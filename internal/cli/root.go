package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rohmanhakim/pinned-repos/internal/config"
)

const envPrefix = "PINNED"

// settings resolves flag, environment and config file values. Flags win
// over environment variables, which win over the config file.
var settings = viper.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pinned-repos",
	Short: "Serve the pinned repositories of a GitHub profile as JSON.",
	Long: `pinned-repos reads the pinned repositories shown on a public GitHub
profile page and serves them as JSON records, one per pinned card.

Results are cached in memory. Expired entries can be served while they are
refreshed in the background.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config-file", "", "config file path, JSON or YAML (e.g., /etc/pinned-repos/config.yaml)")
	flags.String("base-url", "", "root of the site profile pages are read from")
	flags.Int("cache-capacity", 0, "maximum number of cached profiles")
	flags.Duration("cache-ttl", 0, "how long a cached profile is served without refetching")
	flags.Duration("max-stale", 0, "oldest cached profile still served while refreshing")
	flags.Bool("stale-while-revalidate", true, "serve expired entries while refreshing them in the background")
	flags.Int("refresh-concurrency", 0, "maximum concurrent background refreshes")
	flags.Duration("timeout", 0, "timeout for the profile page request")
	flags.String("user-agent", "", "user agent string for HTTP requests")
	flags.Int("max-attempt", 0, "maximum fetch attempts for a profile page")
	flags.Duration("base-delay", 0, "minimum delay between requests to the same host")
	flags.Duration("jitter", 0, "random jitter added to base delay")
	flags.Int64("random-seed", 0, "seed for random number generation (0 for current time)")
	flags.Bool("enrich", true, "fetch each repository page for website and preview image")
	flags.Duration("enrich-timeout", 0, "timeout for each repository page request")
	flags.Int("enrich-concurrency", 0, "maximum concurrent repository page requests")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, console)")

	serveCmd.Flags().IntP("port", "p", 8000, "port to listen on")
	fetchCmd.Flags().Bool("json", false, "print the records as JSON instead of a table")

	rootCmd.AddCommand(serveCmd, fetchCmd, versionCmd)
	bindSettings()
}

// bindSettings points settings at the command flags and the environment.
// Every flag can also be set as PINNED_<FLAG_NAME>; the port also reads
// the bare PORT variable.
func bindSettings() {
	settings = viper.New()
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	_ = settings.BindEnv("port", envPrefix+"_PORT", "PORT")

	for _, flags := range commandFlags() {
		_ = settings.BindPFlags(flags)
	}
}

func commandFlags() []*pflag.FlagSet {
	return []*pflag.FlagSet{
		rootCmd.PersistentFlags(),
		serveCmd.Flags(),
		fetchCmd.Flags(),
	}
}

// InitConfig reads in config file, flags and ENV variables if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file, flags and ENV variables if set,
// returning any errors.
// This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	configBuilder := config.WithDefault()

	if cfgFile := settings.GetString("config-file"); cfgFile != "" {
		fromFile, err := config.FromFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = fromFile
	}

	if settings.IsSet("port") {
		configBuilder = configBuilder.WithPort(settings.GetInt("port"))
	}

	if settings.IsSet("base-url") {
		baseURL, err := url.Parse(settings.GetString("base-url"))
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: base-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(*baseURL)
	}

	if settings.IsSet("cache-capacity") {
		configBuilder = configBuilder.WithCacheCapacity(settings.GetInt("cache-capacity"))
	}

	if settings.IsSet("cache-ttl") {
		configBuilder = configBuilder.WithCacheTTL(settings.GetDuration("cache-ttl"))
	}

	if settings.IsSet("max-stale") {
		configBuilder = configBuilder.WithMaxStale(settings.GetDuration("max-stale"))
	}

	if settings.IsSet("stale-while-revalidate") {
		configBuilder = configBuilder.WithStaleWhileRevalidate(settings.GetBool("stale-while-revalidate"))
	}

	if settings.IsSet("refresh-concurrency") {
		configBuilder = configBuilder.WithRefreshConcurrency(settings.GetInt("refresh-concurrency"))
	}

	if settings.IsSet("timeout") {
		configBuilder = configBuilder.WithTimeout(settings.GetDuration("timeout"))
	}

	if settings.IsSet("user-agent") {
		configBuilder = configBuilder.WithUserAgent(settings.GetString("user-agent"))
	}

	if settings.IsSet("max-attempt") {
		configBuilder = configBuilder.WithMaxAttempt(settings.GetInt("max-attempt"))
	}

	if settings.IsSet("base-delay") {
		configBuilder = configBuilder.WithBaseDelay(settings.GetDuration("base-delay"))
	}

	if settings.IsSet("jitter") {
		configBuilder = configBuilder.WithJitter(settings.GetDuration("jitter"))
	}

	if seed := settings.GetInt64("random-seed"); seed != 0 {
		configBuilder = configBuilder.WithRandomSeed(seed)
	}

	if settings.IsSet("enrich") {
		configBuilder = configBuilder.WithEnrichEnabled(settings.GetBool("enrich"))
	}

	if settings.IsSet("enrich-timeout") {
		configBuilder = configBuilder.WithEnrichTimeout(settings.GetDuration("enrich-timeout"))
	}

	if settings.IsSet("enrich-concurrency") {
		configBuilder = configBuilder.WithEnrichConcurrency(settings.GetInt("enrich-concurrency"))
	}

	if settings.IsSet("log-level") {
		configBuilder = configBuilder.WithLogLevel(settings.GetString("log-level"))
	}

	if settings.IsSet("log-format") {
		configBuilder = configBuilder.WithLogFormat(settings.GetString("log-format"))
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ResetFlags puts every flag back to its default and drops values set
// through settings.
func ResetFlags() {
	for _, flags := range commandFlags() {
		flags.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	bindSettings()
}

// Test helper functions to set flag values from tests
func setFlagForTest(name string, value string) {
	for _, flags := range commandFlags() {
		if flags.Lookup(name) != nil {
			_ = flags.Set(name, value)
			return
		}
	}
}

func SetConfigFileForTest(path string) {
	setFlagForTest("config-file", path)
}

func SetPortForTest(port int) {
	setFlagForTest("port", fmt.Sprint(port))
}

func SetBaseURLForTest(baseURL string) {
	setFlagForTest("base-url", baseURL)
}

func SetCacheCapacityForTest(capacity int) {
	setFlagForTest("cache-capacity", fmt.Sprint(capacity))
}

func SetCacheTTLForTest(ttl string) {
	setFlagForTest("cache-ttl", ttl)
}

func SetMaxStaleForTest(maxStale string) {
	setFlagForTest("max-stale", maxStale)
}

func SetStaleWhileRevalidateForTest(enabled bool) {
	setFlagForTest("stale-while-revalidate", fmt.Sprint(enabled))
}

func SetTimeoutForTest(timeout string) {
	setFlagForTest("timeout", timeout)
}

func SetUserAgentForTest(agent string) {
	setFlagForTest("user-agent", agent)
}

func SetMaxAttemptForTest(attempts int) {
	setFlagForTest("max-attempt", fmt.Sprint(attempts))
}

func SetRandomSeedForTest(seed int64) {
	setFlagForTest("random-seed", fmt.Sprint(seed))
}

func SetEnrichForTest(enabled bool) {
	setFlagForTest("enrich", fmt.Sprint(enabled))
}

func SetLogFormatForTest(format string) {
	setFlagForTest("log-format", format)
}

func SetJSONOutputForTest(enabled bool) {
	setFlagForTest("json", fmt.Sprint(enabled))
}

// RootCommandForTest exposes the command tree so tests can run it with
// their own arguments and writers.
func RootCommandForTest() *cobra.Command {
	return rootCmd
}
