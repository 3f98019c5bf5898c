// Package language resolves recognizer language codes to display names.
//
// The table mirrors the languages the whisper tokenizer knows. Resolution is
// recoverable: callers log the failure and keep the raw code.
package language
