// Package source turns user input into a local media file.
//
// Parse classifies input as a YouTube reference (bare 11-character id or
// any of the watch, embed, v, shorts and youtu.be URL shapes) or as an
// existing local video file. Fetcher materializes the descriptor: local
// files are used in place after a readability check, remote videos are
// downloaded into the run's scratch directory with yt-dlp while its
// "[download] NN.N%" lines are forwarded as progress updates.
//
// All failures carry services.ErrSourceUnavailable.
package source
