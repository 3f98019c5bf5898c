// Package subtitles turns recognized speech segments into subtitle documents
// and burns them into video.
//
// Build wraps segment text greedily at a configurable width, splits tall
// segments into contiguous cues and renders WebVTT or SubRip text. Parse reads
// those documents back, Paragraphs produces the readable plain-text
// transcript, and Muxer overlays an SRT file onto a video with ffmpeg while
// copying the original audio.
package subtitles
