// Package log provides structured logging for Ferro using zerolog.
package log
