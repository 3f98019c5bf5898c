package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe picks the ffprobe matching the configured ffmpeg.
//
// An explicit path is used as-is. A bare name prefers an ffprobe that sits
// next to the resolved ffmpeg, so static builds unpacked into one directory
// stay paired, and otherwise falls back to the name itself for PATH lookup.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) string {
	probe := strings.TrimSpace(ffprobeCommand)
	if probe == "" {
		probe = "ffprobe"
	}
	if strings.ContainsRune(probe, os.PathSeparator) {
		return probe
	}
	ffmpeg := strings.TrimSpace(ffmpegCommand)
	if ffmpeg == "" {
		return probe
	}
	resolved, err := exec.LookPath(ffmpeg)
	if err != nil {
		return probe
	}
	candidate := filepath.Join(filepath.Dir(resolved), executableName(probe))
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return probe
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(base, ".exe") {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
