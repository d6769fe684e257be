package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/observability"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the process exit code for an error. Every error that
// reaches the CLI is a fatal build step failure, so the only codes are 0 and 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var se *SiteError
	if stderrors.As(err, &se) {
		return a.formatSiteError(se)
	}

	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatSiteError(err *SiteError) string {
	if a.verbose {
		return "Error: " + err.Error()
	}

	msg := err.Message
	if err.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Cause)
	}
	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return "Error: " + msg
	default:
		return fmt.Sprintf("Error: %s: %s", err.Category, msg)
	}
}

// HandleError logs the error, prints it and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	a.logError(err)
	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	var se *SiteError
	if !stderrors.As(err, &se) {
		a.logger.Log(context.Background(), observability.LevelCritical, "Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{
		slog.String("category", string(se.Category)),
		slog.String("error", err.Error()),
	}
	for k, v := range se.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.LogAttrs(context.Background(), levelForSeverity(se.Severity), se.Message, attrs...)
}

func levelForSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return observability.LevelCritical
	default:
		return slog.LevelError
	}
}
