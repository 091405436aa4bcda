package session

import (
	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/audio"
	"github.com/minutier/minutier/internal/config"
	"github.com/minutier/minutier/internal/export"
	"github.com/minutier/minutier/internal/repository"
	"github.com/minutier/minutier/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		streaming := do.MustInvoke[transcriber.StreamingTranscriber](i)
		batch := do.MustInvoke[transcriber.BatchTranscriber](i)
		ac := do.MustInvoke[assistant.Client](i)
		exporter := do.MustInvoke[export.SessionExporter](i)
		newSources := do.MustInvoke[audio.SourceFactory](i)
		return NewOrchestrator(cfg, repo, streaming, batch, ac, exporter, newSources), nil
	})
}
