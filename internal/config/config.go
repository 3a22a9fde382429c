package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SetDefaults seeds viper with the app defaults. A talecast.yaml in
// the working directory or ~/.talecast overrides them; the API key is
// only ever read from the environment.
func SetDefaults() {
	// .env is optional; ignore a missing file.
	godotenv.Load()

	viper.SetDefault("openai.tts_model", "gpt-4o-mini-tts")
	viper.SetDefault("openai.chat_model", "gpt-4o-mini")
	viper.SetDefault("openai.base_url", "")

	viper.SetDefault("storage.dir", defaultStoryDir())
	viper.SetDefault("export.dir", ".")

	viper.SetDefault("playback.ready_timeout", "1s")
	viper.SetDefault("playback.skip_delay", "500ms")

	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

func defaultStoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./stories"
	}
	return filepath.Join(home, ".talecast", "stories")
}
