package wavfeed

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, numChans, sampleRate, numFrames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:   make([]int, numFrames*numChans),
	}
	for i := 0; i < numFrames; i++ {
		for c := 0; c < numChans; c++ {
			v := int(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
			buf.Data[i*numChans+c] = v
		}
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestOpenAndReadBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")
	writeTestWAV(t, path, 4, 16000, 2000)

	feed, err := Open(path, 4, 512)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer feed.Close()

	if feed.NumChannels() != 4 {
		t.Fatalf("NumChannels = %d, want 4", feed.NumChannels())
	}
	if feed.SampleRate() != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", feed.SampleRate())
	}

	total := 0
	for {
		block, err := feed.Next()
		if block != nil {
			if len(block) != 4 {
				t.Fatalf("block has %d channels, want 4", len(block))
			}
			total += len(block[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if total != 2000 {
		t.Fatalf("total frames read = %d, want 2000", total)
	}
}

func TestOpenRejectsChannelMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")
	writeTestWAV(t, path, 2, 16000, 100)

	if _, err := Open(path, 4, 512); err == nil {
		t.Fatal("expected error for channel count mismatch")
	}
}
