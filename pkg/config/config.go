package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	ListenAddr = ":8080"
	AppURL     = "http://localhost:8080"

	// Wiki backend
	WikiAPIURL         = "https://tibia.fandom.com/api.php"
	WikiUserAgent      = "tibiawiki-api/1.0"
	WikiClientID       = ""
	WikiClientSecret   = ""
	WikiTokenURL       = ""
	WikiRequestTimeout = 30 * time.Second

	// Retrieval
	ListsCategory    = "Lists"
	FetchConcurrency = 20
	FetchBatchSize   = 50
	SchemaFile       = ""

	// Logging
	LogLevel  = "info"
	LogFormat = "console"

	// Editor login
	SessionSecret      = ""
	GithubClientID     = ""
	GithubClientSecret = ""
)

var OauthConf *oauth2.Config

// File mirrors the optional TOML configuration file. Empty values keep the
// defaults above.
type File struct {
	Server struct {
		Listen string `toml:"listen"`
		AppURL string `toml:"app_url"`
	} `toml:"server"`
	Wiki struct {
		APIURL         string `toml:"api_url"`
		UserAgent      string `toml:"user_agent"`
		ClientID       string `toml:"client_id"`
		ClientSecret   string `toml:"client_secret"`
		TokenURL       string `toml:"token_url"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"wiki"`
	Retrieval struct {
		ListsCategory string `toml:"lists_category"`
		Concurrency   int    `toml:"concurrency"`
		BatchSize     int    `toml:"batch_size"`
		SchemaFile    string `toml:"schema_file"`
	} `toml:"retrieval"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// Init loads .env, then the TOML file named by CONFIG_FILE (default
// tibiawiki.toml), then environment variables, each overriding the last.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	if err := LoadFile(getEnv("CONFIG_FILE", "tibiawiki.toml")); err != nil {
		return err
	}

	ListenAddr = getEnv("LISTEN_ADDR", ListenAddr)
	AppURL = getEnv("APP_URL", AppURL)

	WikiAPIURL = getEnv("WIKI_API_URL", WikiAPIURL)
	WikiUserAgent = getEnv("WIKI_USER_AGENT", WikiUserAgent)
	WikiClientID = getEnv("WIKI_CLIENT_ID", WikiClientID)
	WikiClientSecret = getEnv("WIKI_CLIENT_SECRET", WikiClientSecret)
	WikiTokenURL = getEnv("WIKI_TOKEN_URL", WikiTokenURL)
	if v := os.Getenv("WIKI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			WikiRequestTimeout = time.Duration(n) * time.Second
		}
	}

	ListsCategory = getEnv("LISTS_CATEGORY", ListsCategory)
	SchemaFile = getEnv("SCHEMA_FILE", SchemaFile)
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			FetchConcurrency = n
		}
	}
	if v := os.Getenv("FETCH_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			FetchBatchSize = n
		}
	}

	LogLevel = getEnv("LOG_LEVEL", LogLevel)
	LogFormat = getEnv("LOG_FORMAT", LogFormat)

	SessionSecret = getEnv("SESSION_SECRET", SessionSecret)
	GithubClientID = getEnv("GITHUB_CLIENT_ID", GithubClientID)
	GithubClientSecret = getEnv("GITHUB_CLIENT_SECRET", GithubClientSecret)

	OauthConf = nil
	if GithubClientID != "" {
		OauthConf = &oauth2.Config{
			ClientID:     GithubClientID,
			ClientSecret: GithubClientSecret,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", AppURL+"/auth/callback"),
		}
	}

	return Validate()
}

// LoadFile applies a TOML configuration file. A missing file is not an error.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	apply(&f)
	return nil
}

func apply(f *File) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&ListenAddr, f.Server.Listen)
	set(&AppURL, f.Server.AppURL)
	set(&WikiAPIURL, f.Wiki.APIURL)
	set(&WikiUserAgent, f.Wiki.UserAgent)
	set(&WikiClientID, f.Wiki.ClientID)
	set(&WikiClientSecret, f.Wiki.ClientSecret)
	set(&WikiTokenURL, f.Wiki.TokenURL)
	if f.Wiki.TimeoutSeconds > 0 {
		WikiRequestTimeout = time.Duration(f.Wiki.TimeoutSeconds) * time.Second
	}
	set(&ListsCategory, f.Retrieval.ListsCategory)
	set(&SchemaFile, f.Retrieval.SchemaFile)
	if f.Retrieval.Concurrency > 0 {
		FetchConcurrency = f.Retrieval.Concurrency
	}
	if f.Retrieval.BatchSize > 0 {
		FetchBatchSize = f.Retrieval.BatchSize
	}
	set(&LogLevel, f.Logging.Level)
	set(&LogFormat, f.Logging.Format)
}

// Validate reports every invalid setting at once.
func Validate() error {
	var errs []error
	if u, err := url.Parse(WikiAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("wiki api url: invalid value %q", WikiAPIURL))
	}
	if (WikiClientID == "") != (WikiClientSecret == "") {
		errs = append(errs, errors.New("wiki client id and secret must be set together"))
	}
	if WikiClientID != "" && WikiTokenURL == "" {
		errs = append(errs, errors.New("wiki token url is required with client credentials"))
	}
	if FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch concurrency: must be positive, got %d", FetchConcurrency))
	}
	if FetchBatchSize < 1 || FetchBatchSize > 50 {
		errs = append(errs, fmt.Errorf("fetch batch size: must be between 1 and 50, got %d", FetchBatchSize))
	}
	if WikiRequestTimeout <= 0 {
		errs = append(errs, errors.New("wiki timeout: must be positive"))
	}
	if GithubClientID != "" && SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required when editor login is enabled"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether write routes require an editor session.
func AuthEnabled() bool {
	return OauthConf != nil
}
