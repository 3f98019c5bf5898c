// Package packager lays out finished runs in the library directory.
//
// Every run gets <library_dir>/<run-id>/ holding transcript.txt,
// transcript.vtt, transcript.srt, the subtitled video and a zip archive
// bundling all four. A Publisher, when configured, uploads the archive to
// S3-compatible storage. List walks the library for the CLI.
//
// Failures carry services.ErrPackaging.
package packager
