package audio

import (
	"github.com/minutier/minutier/internal/audio"
	"github.com/minutier/minutier/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.SourceFactory, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewSourceFactory(c.SampleRate, c.FrameQueueCapacity, c.InputDeviceName)
	})
}
