package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global) error {
	_, err := fmt.Fprintf(g.Stdout, "sitegen %s\ncommit: %s\nbuilt: %s\n", version.Version, version.GitCommit, version.BuildTime)
	return err
}
