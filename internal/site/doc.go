// Package site drives a full build: it loads the template engine, prepares
// the output directory, copies static assets and renders every document of
// the content tree.
//
// The first three steps are fatal: any failure aborts the build before a
// single document is rendered. Document failures are recorded in the Report
// and never stop the build.
package site
