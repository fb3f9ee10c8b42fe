// Package workspace manages scratch directories for downloads and other
// intermediate files. Each Manager creates one timestamped directory
// (e.g. docpipe-20251214-122336-123456) and removes it on Cleanup.
package workspace
