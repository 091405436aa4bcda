package assistant

import (
	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (assistant.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewChatClient(ChatConfig{
			URL:        c.AssistantURL,
			APIKey:     c.TranscribeAPIKey,
			Model:      c.AssistantModel,
			Timeout:    c.RequestTimeout(),
			MaxRetries: c.MaxRetries,
		}), nil
	})
}
