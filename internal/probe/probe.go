// Package probe inspects downloaded media through libavformat. The boundary
// resolver clamps extraction ranges to the real container duration rather
// than trusting what the site's metadata claimed.
package probe

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

type MediaInfo struct {
	DurationSec float64
	BitRate     int64
	HasVideo    bool
	HasAudio    bool
}

func Probe(path string) (*MediaInfo, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, fmt.Errorf("probe %s: failed to allocate format context", path)
	}
	defer fc.Free()

	if err := fc.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("probe %s: open input: %w", path, err)
	}
	defer fc.CloseInput()

	if err := fc.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("probe %s: find stream info: %w", path, err)
	}

	info := &MediaInfo{
		// Duration is in AV_TIME_BASE units (microseconds)
		DurationSec: float64(fc.Duration()) / 1e6,
		BitRate:     fc.BitRate(),
	}
	for _, st := range fc.Streams() {
		switch st.CodecParameters().MediaType() {
		case astiav.MediaTypeVideo:
			info.HasVideo = true
		case astiav.MediaTypeAudio:
			info.HasAudio = true
		}
	}
	return info, nil
}
