// Package banner renders the startup banner shown on stderr.
package banner

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

const art = `
  ┬─┐┌─┐┬─┐┌─┐ ┬
  ├┬┘├─┘├┬┘│ │ │
  ┴└─┴  ┴└─└─┘└┘`

// Banner returns the colored banner with the version appended.
func Banner(version string) string {
	if version == "" {
		version = "dev"
	}
	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.OpBold).Render(art))
	b.WriteString("  ")
	b.WriteString(color.New(color.FgGray).Render(fmt.Sprintf("v%s", strings.TrimPrefix(version, "v"))))
	b.WriteString("\n")
	b.WriteString(color.New(color.FgGray).Render("  sparse random projections of text"))
	b.WriteString("\n\n")
	return b.String()
}
