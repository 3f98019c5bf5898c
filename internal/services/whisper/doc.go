// Package whisper runs speech recognition through the openai-whisper CLI or
// WhisperX (launched with uvx) and adapts them to the model cache.
//
// Loader validates the engine binary and, when configured, holds a host-wide
// file lock for as long as a model is loaded so two processes never compete
// for the same accelerator. Each Transcribe call writes JSON into the run's
// scratch directory and parses text, segments and the detected language
// from it. Translation always yields English; the detected language stays the
// source language reported by the engine.
package whisper
