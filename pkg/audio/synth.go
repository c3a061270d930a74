package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Tone returns a mono sine wave of the given frequency. amplitude is a
// fraction of full scale (0..1).
func Tone(frequency, amplitude float64, duration time.Duration, sampleRate int) Clip {
	samples := int(time.Duration(sampleRate) * duration / time.Second)
	data := make([]byte, samples*2)

	for i := 0; i < samples; i++ {
		t := float64(i) / float64(sampleRate)
		sample := math.Sin(2 * math.Pi * frequency * t)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample*32767*amplitude)))
	}

	return Clip{Data: data, SampleRate: sampleRate, NumChannels: 1}
}

// Silence returns mono digital silence.
func Silence(duration time.Duration, sampleRate int) Clip {
	samples := int(time.Duration(sampleRate) * duration / time.Second)
	return Clip{Data: make([]byte, samples*2), SampleRate: sampleRate, NumChannels: 1}
}
