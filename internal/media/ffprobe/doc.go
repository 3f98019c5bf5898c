// Package ffprobe runs ffprobe against a media file and decodes its JSON
// report into streams and container format. Failures carry
// services.ErrMediaDecode.
package ffprobe
