package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/minutier/minutier/internal/config"
)

type envConfig struct {
	Env                 string `env:"ENV" envDefault:"production"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	TranscribeAPIKey    string `env:"TRANSCRIBE_API_KEY,required"`
	RealtimeWSURL       string `env:"REALTIME_WS_URL,required"`
	TranscribeBatchURL  string `env:"TRANSCRIBE_BATCH_URL,required"`
	AssistantURL        string `env:"ASSISTANT_URL,required"`
	RealtimeModel       string `env:"REALTIME_MODEL" envDefault:"voxtral-mini-transcribe-realtime"`
	BatchModel          string `env:"BATCH_MODEL" envDefault:"voxtral-mini-latest"`
	AssistantModel      string `env:"ASSISTANT_MODEL" envDefault:"mistral-small-latest"`
	DefaultLanguage     string `env:"DEFAULT_LANGUAGE"`
	AudioDir            string `env:"AUDIO_DIR,required"`
	ExportDir           string `env:"EXPORT_DIR"`
	SampleRate          int    `env:"SAMPLE_RATE" envDefault:"16000"`
	ChunkMillis         int    `env:"CHUNK_MILLIS" envDefault:"250"`
	FrameQueueCapacity  int    `env:"FRAME_QUEUE_CAPACITY" envDefault:"64"`
	StopDrainTimeoutSec int    `env:"STOP_DRAIN_TIMEOUT_SEC" envDefault:"5"`
	RequestTimeoutSec   int    `env:"REQUEST_TIMEOUT_SEC" envDefault:"60"`
	MaxRetries          int    `env:"MAX_RETRIES" envDefault:"3"`
	InputDeviceName     string `env:"INPUT_DEVICE_NAME"`
	LocalSpeakerLabel   string `env:"LOCAL_SPEAKER_LABEL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                 raw.Env,
		DatabaseURL:         raw.DatabaseURL,
		TranscribeAPIKey:    raw.TranscribeAPIKey,
		RealtimeWSURL:       raw.RealtimeWSURL,
		TranscribeBatchURL:  raw.TranscribeBatchURL,
		AssistantURL:        raw.AssistantURL,
		RealtimeModel:       raw.RealtimeModel,
		BatchModel:          raw.BatchModel,
		AssistantModel:      raw.AssistantModel,
		DefaultLanguage:     raw.DefaultLanguage,
		AudioDir:            raw.AudioDir,
		ExportDir:           raw.ExportDir,
		SampleRate:          raw.SampleRate,
		ChunkMillis:         raw.ChunkMillis,
		FrameQueueCapacity:  raw.FrameQueueCapacity,
		StopDrainTimeoutSec: raw.StopDrainTimeoutSec,
		RequestTimeoutSec:   raw.RequestTimeoutSec,
		MaxRetries:          raw.MaxRetries,
		InputDeviceName:     raw.InputDeviceName,
		LocalSpeakerLabel:   raw.LocalSpeakerLabel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
