package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"
)

const (
	SampleRate      = 16000
	channels        = 1
	FramesPerBuffer = 1024
)

// ErrUnavailable means no audio device could be opened.
var ErrUnavailable = errors.New("audio device unavailable")

func Init() error {
	log.Info().Msg("[Audio] initializing PortAudio...")
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func Shutdown() {
	log.Info().Msg("[Audio] terminating PortAudio...")
	if err := portaudio.Terminate(); err != nil {
		log.Error().Err(err).Msg("[Audio] error terminating PortAudio")
	}
}

// Microphone captures 16 kHz mono PCM from the default input device.
type Microphone struct {
	// DumpPath, when set, receives a copy of every captured frame as raw PCM.
	DumpPath string
}

// Capture reads from the default mic and sends int16 frames to out until ctx
// is done. out is closed when capture stops.
func (m *Microphone) Capture(ctx context.Context, out chan<- []int16) error {
	defer close(out)

	var dump *os.File
	if m.DumpPath != "" {
		f, err := os.Create(m.DumpPath)
		if err != nil {
			log.Warn().Err(err).Str("path", m.DumpPath).Msg("[Audio] cannot create mic dump")
		} else {
			dump = f
			defer func() {
				if err := f.Close(); err != nil {
					log.Error().Err(err).Msg("[Audio] error closing mic dump")
				}
			}()
		}
	}

	buffer := make([]int16, FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(channels, 0, SampleRate, len(buffer), &buffer)
	if err != nil {
		return fmt.Errorf("%w: open input: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: start input: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			return fmt.Errorf("mic read: %w", err)
		}

		frame := make([]int16, len(buffer))
		copy(frame, buffer)

		if dump != nil {
			if _, err := dump.Write(Int16ToBytes(frame)); err != nil {
				log.Warn().Err(err).Msg("[Audio] error writing mic dump")
			}
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return nil
		}
	}
}

// Speakers plays PCM on the default output device.
type Speakers struct{}

// Play writes linear16 mono PCM at sampleRate. speed resamples the signal, so
// tempo and pitch change together; volume scales amplitude.
func (Speakers) Play(ctx context.Context, pcm []byte, sampleRate int, speed, volume float64) error {
	samples := Scale(Resample(BytesToInt16(pcm), speed), volume)
	buffer := make([]int16, FramesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), len(buffer), &buffer)
	if err != nil {
		return fmt.Errorf("%w: open output: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: start output: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
	}()

	for offset := 0; offset < len(samples); {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buffer, samples[offset:])
		for i := n; i < len(buffer); i++ {
			buffer[i] = 0
		}
		offset += n
		if err := stream.Write(); err != nil {
			return fmt.Errorf("speaker write: %w", err)
		}
	}
	return nil
}

func Int16ToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

func BytesToInt16(data []byte) []int16 {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// Resample stretches samples by 1/speed using linear interpolation.
func Resample(samples []int16, speed float64) []int16 {
	if speed <= 0 || speed == 1 || len(samples) < 2 {
		return samples
	}
	n := int(float64(len(samples)) / speed)
	out := make([]int16, n)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * speed
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}

// Scale multiplies samples by volume, clipping to the int16 range.
func Scale(samples []int16, volume float64) []int16 {
	if volume == 1 {
		return samples
	}
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * volume)
		out[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, v)))
	}
	return out
}
