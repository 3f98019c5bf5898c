// Package audio prepares the recognizer input for a pipeline run.
//
// Select ranks the audio streams of a container and picks the one to
// transcribe: a stream tagged with the requested language wins, commentary
// and descriptive tracks lose, and the default-flagged track breaks ties.
//
// Extractor probes the source with ffprobe, then runs ffmpeg to write the
// chosen stream as mono 16 kHz signed 16-bit PCM, the format whisper
// models are trained on. Every failure is tagged services.ErrMediaDecode.
package audio
