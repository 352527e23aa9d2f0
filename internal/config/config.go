package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "HAKAYAT"
	ConfigName = "hakayat"
)

// Config is the typed view of the viper settings.
type Config struct {
	GenAI   GenAI   `yaml:"genai"`
	Story   Story   `yaml:"story"`
	TTS     TTS     `yaml:"tts"`
	OpenAI  OpenAI  `yaml:"openai"`
	Reader  Reader  `yaml:"reader"`
	Library Library `yaml:"library"`
	Backup  Backup  `yaml:"backup"`
	Log     Log     `yaml:"log"`
}

type GenAI struct {
	APIKey      string `yaml:"api_key"`
	StoryModel  string `yaml:"story_model"`
	ImageModel  string `yaml:"image_model"`
	SpeechModel string `yaml:"speech_model"`
}

type Story struct {
	Language string `yaml:"language"`
}

type TTS struct {
	// Remote is the speech service: gemini, googleclassic, openai or none.
	Remote string `yaml:"remote"`
	// Device is the platform synthesizer: auto, espeak, say, sapi, mock or none.
	Device       string  `yaml:"device"`
	Voice        string  `yaml:"voice"`
	Speed        float64 `yaml:"speed"`
	Volume       float64 `yaml:"volume"`
	Language     string  `yaml:"language"`
	LanguageCode string  `yaml:"language_code"`
	CachePath    string  `yaml:"cache_path"`
}

type OpenAI struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	SpeechModel string `yaml:"speech_model"`
}

type Reader struct {
	PageSize int `yaml:"page_size"`
}

type Library struct {
	Path string `yaml:"path"`
}

type Backup struct {
	S3 S3 `yaml:"s3"`
}

type S3 struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type Log struct {
	Level string `yaml:"level"`
}

func SetDefaults() {
	home := homeDir()

	viper.SetDefault("genai.api_key", "")
	viper.SetDefault("genai.story_model", "gemini-2.5-flash")
	viper.SetDefault("genai.image_model", "gemini-2.5-flash-image")
	viper.SetDefault("genai.speech_model", "gemini-2.5-flash-preview-tts")

	viper.SetDefault("story.language", "Arabic")

	viper.SetDefault("tts.remote", "gemini")
	viper.SetDefault("tts.device", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "Puck")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.volume", 0.8)
	viper.SetDefault("tts.language", "ar")
	viper.SetDefault("tts.language_code", "ar-XA")
	viper.SetDefault("tts.cache_path", filepath.Join(home, "cache"))

	viper.SetDefault("openai.speech_model", "gpt-4o-mini-tts")

	viper.SetDefault("reader.page_size", 4)
	viper.SetDefault("library.path", filepath.Join(home, "library"))
	viper.SetDefault("backup.s3.region", "us-east-1")
	viper.SetDefault("log.level", "warn")
}

// Init wires the config file search paths and environment overrides, then
// reads the file if there is one.
func Init() error {
	SetDefaults()

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(homeDir())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

// Load returns the effective configuration.
func Load() Config {
	return Config{
		GenAI: GenAI{
			APIKey:      firstNonEmpty(viper.GetString("genai.api_key"), os.Getenv("GEMINI_API_KEY")),
			StoryModel:  viper.GetString("genai.story_model"),
			ImageModel:  viper.GetString("genai.image_model"),
			SpeechModel: viper.GetString("genai.speech_model"),
		},
		Story: Story{Language: viper.GetString("story.language")},
		TTS: TTS{
			Remote:       viper.GetString("tts.remote"),
			Device:       viper.GetString("tts.device"),
			Voice:        viper.GetString("tts.voice"),
			Speed:        viper.GetFloat64("tts.speed"),
			Volume:       viper.GetFloat64("tts.volume"),
			Language:     viper.GetString("tts.language"),
			LanguageCode: viper.GetString("tts.language_code"),
			CachePath:    viper.GetString("tts.cache_path"),
		},
		OpenAI: OpenAI{
			APIKey:      firstNonEmpty(viper.GetString("openai.api_key"), os.Getenv("OPENAI_API_KEY")),
			BaseURL:     viper.GetString("openai.base_url"),
			SpeechModel: viper.GetString("openai.speech_model"),
		},
		Reader:  Reader{PageSize: viper.GetInt("reader.page_size")},
		Library: Library{Path: viper.GetString("library.path")},
		Backup: Backup{S3: S3{
			Region:    viper.GetString("backup.s3.region"),
			Endpoint:  viper.GetString("backup.s3.endpoint"),
			AccessKey: viper.GetString("backup.s3.access_key"),
			SecretKey: viper.GetString("backup.s3.secret_key"),
		}},
		Log: Log{Level: viper.GetString("log.level")},
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.GenAI.APIKey = redact(c.GenAI.APIKey)
	c.OpenAI.APIKey = redact(c.OpenAI.APIKey)
	c.Backup.S3.SecretKey = redact(c.Backup.S3.SecretKey)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hakayat"
	}
	return filepath.Join(home, ".hakayat")
}
