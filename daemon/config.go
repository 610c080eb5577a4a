package daemon

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from a YAML file, overridden by environment variables.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Http     HttpConfig     `yaml:"http"`
	Pg       PgConfig       `yaml:"pg"`
	Blob     BlobConfig     `yaml:"blob"`
	Modeler  ModelerConfig  `yaml:"modeler"`
	Transfer TransferConfig `yaml:"transfer"`
	Export   ExportConfig   `yaml:"export"`
	Draft    DraftConfig    `yaml:"draft"`
	Save     SaveConfig     `yaml:"save"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"BUNDLER_LOG_LEVEL" env-default:"info" env-description:"log level: trace, debug, info, warn or error"`
	Json  bool   `yaml:"json" env:"BUNDLER_LOG_JSON" env-description:"log in JSON format"`
}

type HttpConfig struct {
	BindAddress string        `yaml:"bindAddress" env:"BUNDLER_HTTP_BIND_ADDRESS" env-default:"127.0.0.1:8080" env-description:"TCP address of the HTTP API to listen on"`
	ReadTimeout time.Duration `yaml:"readTimeout" env:"BUNDLER_HTTP_READ_TIMEOUT" env-default:"15s" env-description:"maximum duration for reading the entire request - see http.Server#ReadTimeout"`

	BasicAuthUsername string `yaml:"basicAuthUsername" env:"BUNDLER_HTTP_BASIC_AUTH_USERNAME" env-description:"username for basic authentication"`
	BasicAuthPassword string `yaml:"basicAuthPassword" env:"BUNDLER_HTTP_BASIC_AUTH_PASSWORD" env-description:"password for basic authentication"`
}

type PgConfig struct {
	DatabaseUrl string `yaml:"databaseUrl" env:"BUNDLER_PG_DATABASE_URL" env-description:"format: postgres://<username>:<password>@<host>:<port>/<database>"`
}

type BlobConfig struct {
	Dir string   `yaml:"dir" env:"BUNDLER_BLOB_DIR" env-default:"data" env-description:"blob directory, used in standalone mode"`
	S3  S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUNDLER_S3_BUCKET" env-description:"S3 bucket for templates and exports"`
	Region    string `yaml:"region" env:"BUNDLER_S3_REGION" env-description:"S3 region"`
	AccessKey string `yaml:"accessKey" env:"BUNDLER_S3_ACCESS_KEY" env-description:"S3 access key - when empty, the default AWS credential chain is used"`
	SecretKey string `yaml:"secretKey" env:"BUNDLER_S3_SECRET_KEY" env-description:"S3 secret key"`
	Endpoint  string `yaml:"endpoint" env:"BUNDLER_S3_ENDPOINT" env-description:"S3 endpoint override, e.g. for MinIO"`
}

type ModelerConfig struct {
	Url          string `yaml:"url" env:"BUNDLER_MODELER_URL" env-description:"Web Modeler API URL"`
	TokenUrl     string `yaml:"tokenUrl" env:"BUNDLER_MODELER_TOKEN_URL" env-description:"OAuth token URL for the Web Modeler API"`
	ClientId     string `yaml:"clientId" env:"BUNDLER_MODELER_CLIENT_ID" env-description:"OAuth client ID"`
	ClientSecret string `yaml:"clientSecret" env:"BUNDLER_MODELER_CLIENT_SECRET" env-description:"OAuth client secret"`
	Audience     string `yaml:"audience" env:"BUNDLER_MODELER_AUDIENCE" env-description:"OAuth audience"`
}

type TransferConfig struct {
	ProjectName string        `yaml:"projectName" env:"BUNDLER_TRANSFER_PROJECT_NAME" env-description:"target project name - when empty, the service name is used"`
	Attempts    int           `yaml:"attempts" env:"BUNDLER_TRANSFER_ATTEMPTS" env-default:"3" env-description:"upload attempts per file"`
	BackoffUnit time.Duration `yaml:"backoffUnit" env:"BUNDLER_TRANSFER_BACKOFF_UNIT" env-default:"2s" env-description:"wait between upload attempts grows linearly by this unit"`
	PacingDelay time.Duration `yaml:"pacingDelay" env:"BUNDLER_TRANSFER_PACING_DELAY" env-default:"500ms" env-description:"wait between consecutive file uploads"`
	NodeId      int64         `yaml:"nodeId" env:"BUNDLER_TRANSFER_NODE_ID" env-description:"snowflake node ID, used for job IDs"`
}

type ExportConfig struct {
	SweepCron  string        `yaml:"sweepCron" env:"BUNDLER_EXPORT_SWEEP_CRON" env-default:"0 * * * *" env-description:"cron expression, determining when expired exports are pruned"`
	MaxAge     time.Duration `yaml:"maxAge" env:"BUNDLER_EXPORT_MAX_AGE" env-default:"168h" env-description:"age at which an export expires"`
	LinkExpiry time.Duration `yaml:"linkExpiry" env:"BUNDLER_EXPORT_LINK_EXPIRY" env-default:"24h" env-description:"lifetime of export download links"`
}

type DraftConfig struct {
	OpenAiToken string `yaml:"openAiToken" env:"BUNDLER_OPENAI_TOKEN" env-description:"OpenAI API token - when empty, description drafting is disabled"`
	OpenAiModel string `yaml:"openAiModel" env:"BUNDLER_OPENAI_MODEL" env-default:"gpt-4o-mini" env-description:"OpenAI model, used for description drafting"`
}

type SaveConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"BUNDLER_SAVE_DEBOUNCE" env-default:"2s" env-description:"debounce interval for diagram saves"`
}

// readConfig reads the given YAML file and applies environment variables on
// top. Without a file, the configuration is read from the environment only.
func readConfig(fileName string) (Config, error) {
	if fileName == "" {
		fileName = os.Getenv(envPrefix + "CONFIG")
	}

	var config Config
	if fileName == "" {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return Config{}, fmt.Errorf("failed to read configuration from environment: %v", err)
		}
	} else {
		if err := cleanenv.ReadConfig(fileName, &config); err != nil {
			return Config{}, fmt.Errorf("failed to read configuration file %s: %v", fileName, err)
		}
	}

	return config, nil
}

// Validate reports all configuration problems at once. In standalone mode,
// the Postgres and S3 related options are not required.
func (c Config) Validate(standalone bool) []error {
	var errs []error

	if c.Http.BasicAuthUsername == "" {
		errs = append(errs, errors.New("BUNDLER_HTTP_BASIC_AUTH_USERNAME: is empty"))
	}
	if c.Http.BasicAuthPassword == "" {
		errs = append(errs, errors.New("BUNDLER_HTTP_BASIC_AUTH_PASSWORD: is empty"))
	}

	if c.Modeler.Url == "" {
		errs = append(errs, errors.New("BUNDLER_MODELER_URL: is empty"))
	}
	if c.Modeler.TokenUrl == "" {
		errs = append(errs, errors.New("BUNDLER_MODELER_TOKEN_URL: is empty"))
	}
	if c.Modeler.ClientId == "" {
		errs = append(errs, errors.New("BUNDLER_MODELER_CLIENT_ID: is empty"))
	}
	if c.Modeler.ClientSecret == "" {
		errs = append(errs, errors.New("BUNDLER_MODELER_CLIENT_SECRET: is empty"))
	}

	if !gronx.IsValid(c.Export.SweepCron) {
		errs = append(errs, fmt.Errorf("BUNDLER_EXPORT_SWEEP_CRON=%s: cron expression is invalid", c.Export.SweepCron))
	}

	if !standalone {
		if c.Pg.DatabaseUrl == "" {
			errs = append(errs, errors.New("BUNDLER_PG_DATABASE_URL: is empty"))
		}
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("BUNDLER_S3_BUCKET: is empty"))
		}
	}

	return errs
}
