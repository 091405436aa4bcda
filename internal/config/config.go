package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                 string
	DatabaseURL         string
	TranscribeAPIKey    string
	RealtimeWSURL       string
	TranscribeBatchURL  string
	AssistantURL        string
	RealtimeModel       string
	BatchModel          string
	AssistantModel      string
	DefaultLanguage     string
	AudioDir            string
	ExportDir           string
	SampleRate          int
	ChunkMillis         int
	FrameQueueCapacity  int
	StopDrainTimeoutSec int
	RequestTimeoutSec   int
	MaxRetries          int
	InputDeviceName     string
	LocalSpeakerLabel   string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.ChunkMillis <= 0 {
		return fmt.Errorf("CHUNK_MILLIS must be positive, got %d", c.ChunkMillis)
	}
	if c.FrameQueueCapacity <= 0 {
		return fmt.Errorf("FRAME_QUEUE_CAPACITY must be positive, got %d", c.FrameQueueCapacity)
	}
	if c.StopDrainTimeoutSec <= 0 {
		return fmt.Errorf("STOP_DRAIN_TIMEOUT_SEC must be positive, got %d", c.StopDrainTimeoutSec)
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be positive, got %d", c.RequestTimeoutSec)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "TRANSCRIBE_API_KEY", value: c.TranscribeAPIKey},
		{name: "REALTIME_WS_URL", value: c.RealtimeWSURL},
		{name: "TRANSCRIBE_BATCH_URL", value: c.TranscribeBatchURL},
		{name: "ASSISTANT_URL", value: c.AssistantURL},
		{name: "AUDIO_DIR", value: c.AudioDir},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) StopDrainTimeout() time.Duration {
	return time.Duration(c.StopDrainTimeoutSec) * time.Second
}
