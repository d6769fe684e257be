package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

const starterTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.title}} | {{.site.title}}</title>
  <link rel="stylesheet" href="/static/css/style.css">
</head>
<body>
  <main>
{{.body}}
  </main>
  <footer>Generated by {{.generator}} at {{.generated_at}}</footer>
</body>
</html>
`

const starterPage = `---
{"template": "default.html", "title": "Welcome"}
---
# Welcome

Edit ` + "`content/index.md`" + ` and run ` + "`sitegen build`" + `.
`

const starterStyle = `body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
`

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path, _ := root.configPath()
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote %s\n", path)

	starters := []struct{ rel, content string }{
		{filepath.Join(config.DefaultTemplatesDir, config.DefaultTemplateName), starterTemplate},
		{filepath.Join(config.DefaultContentDir, "index.md"), starterPage},
		{filepath.Join(config.DefaultStaticDir, "css", "style.css"), starterStyle},
	}
	for _, f := range starters {
		written, err := writeIfAbsent(filepath.Join(root.Root, f.rel), f.content)
		if err != nil {
			return err
		}
		if written {
			_, _ = fmt.Fprintf(g.Stdout, "Wrote %s\n", f.rel)
		}
	}
	return nil
}

// writeIfAbsent creates path with content unless it already exists.
func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	// #nosec G306 -- starter project files are meant to be edited and published.
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
