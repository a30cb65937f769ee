// Package logging builds the slog loggers used across scrollback.
//
// Two output formats are supported: a console format tuned for people watching
// an extraction run (one header line per record plus indented fields) and a
// JSON format for log files and tooling. NewFromConfig wires both together so
// the terminal stays readable while the log directory keeps a structured
// record of every image, stage and judge call.
package logging
