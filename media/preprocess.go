package media

import (
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegDownmixer shrinks audio payloads by re-encoding them to mono
// 16 kHz MP3 at a low bitrate. It requires an ffmpeg binary on PATH and is
// only wired in when enabled by configuration.
type FFmpegDownmixer struct {
	Bitrate string
}

// NewFFmpegDownmixer creates a downmixer with the default 48 kbps bitrate.
func NewFFmpegDownmixer() *FFmpegDownmixer {
	return &FFmpegDownmixer{Bitrate: "48k"}
}

// Downmix re-encodes data through ffmpeg and returns the smaller payload.
func (d *FFmpegDownmixer) Downmix(data []byte) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "transcriber-downmix-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp workspace: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "input.audio")
	outPath := filepath.Join(tempDir, "downmixed.mp3")

	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage input: %w", err)
	}

	err = ffmpeg.Input(inPath).
		Output(outPath, ffmpeg.KwArgs{
			"vn":  "",
			"ac":  "1",
			"ar":  "16000",
			"b:a": d.Bitrate,
			"f":   "mp3",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg downmix failed: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read downmixed audio: %w", err)
	}
	return out, nil
}
