package transcriber

import (
	"github.com/minutier/minutier/internal/config"
	"github.com/minutier/minutier/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.StreamingTranscriber, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewRealtimeTranscriber(RealtimeConfig{
			URL:           c.RealtimeWSURL,
			APIKey:        c.TranscribeAPIKey,
			Model:         c.RealtimeModel,
			SampleRate:    c.SampleRate,
			MaxReconnects: c.MaxRetries,
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (transcriber.BatchTranscriber, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewBatchHTTPTranscriber(BatchConfig{
			URL:        c.TranscribeBatchURL,
			APIKey:     c.TranscribeAPIKey,
			Model:      c.BatchModel,
			Timeout:    c.RequestTimeout(),
			MaxRetries: c.MaxRetries,
		}), nil
	})
}
