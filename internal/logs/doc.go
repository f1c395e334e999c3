// Package logs reads hookreel's daily log files for the `hookreel logs`
// command.
//
// Latest picks the newest log under the configured directory. Tail returns the
// last N lines with the offset to resume from, and Follow polls that offset
// for appended lines until the context ends. Memory use is bounded by the
// requested line count regardless of file size.
package logs
