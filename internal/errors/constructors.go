package errors

import "fmt"

// Convenience functions for the fatal build steps

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration")
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, fmt.Sprintf("validation failed: %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Fatal build steps

func TemplateEngineInit(root string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template engine initialization failed").
		WithContext("root", root)
}

func OutputDirCreate(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output directory creation failed").
		WithContext("path", path)
}

func StaticCopyFailed(src string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "static asset copy failed").
		WithContext("static", src)
}

func DiscoveryFailed(root string, cause error) *SiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "content discovery failed").
		WithContext("content", root)
}
