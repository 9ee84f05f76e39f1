package sound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// ErrNoOutput means the host has no audio output configured.
var ErrNoOutput = errors.New("no audio output available")

// Output plays rendered samples.
type Output interface {
	Write(ctx context.Context, name string, samples []float64, sampleRate int) error
}

// NoOutput discards everything and reports ErrNoOutput.
type NoOutput struct{}

func (NoOutput) Write(context.Context, string, []float64, int) error {
	return ErrNoOutput
}

// WAVFileOutput writes each sound to <dir>/<name>.wav.
type WAVFileOutput struct {
	Dir string
}

func (o WAVFileOutput) Write(_ context.Context, name string, samples []float64, sampleRate int) error {
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return fmt.Errorf("create sound dir: %w", err)
	}
	path := filepath.Join(o.Dir, name+".wav")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// CommandOutput feeds a WAV stream to the stdin of an external player such
// as aplay.
type CommandOutput struct {
	Command string
}

func (o CommandOutput) Write(ctx context.Context, name string, samples []float64, sampleRate int) error {
	fields := strings.Fields(o.Command)
	if len(fields) == 0 {
		return ErrNoOutput
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return fmt.Errorf("%w: %s", ErrNoOutput, fields[0])
	}

	// the encoder seeks back to patch chunk sizes, so it needs a file
	tmp, err := os.CreateTemp("", "acadease-"+name+"-*.wav")
	if err != nil {
		return fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := EncodeWAV(tmp, samples, sampleRate); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp wav: %w", err)
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = tmp
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w: %s", fields[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EncodeWAV writes mono samples in [-1, 1] as 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(s * math.MaxInt16))
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, wavPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}
