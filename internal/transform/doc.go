// Package transform defines the capability the pipeline calls for each step:
// rewrite a text with one transformation option. Implementations talk to the
// remote service over HTTP, or run in-process for tests and demos.
package transform
