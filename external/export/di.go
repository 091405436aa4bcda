package export

import (
	"github.com/minutier/minutier/internal/config"
	"github.com/minutier/minutier/internal/export"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (export.SessionExporter, error) {
		c := do.MustInvoke[*config.Config](i)
		dir := c.ExportDir
		if dir == "" {
			dir = c.AudioDir
		}
		return NewMarkdownExporter(dir), nil
	})
}
