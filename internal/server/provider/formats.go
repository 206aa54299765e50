package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// selectFormat picks one format for a quality token.
//
// Accepted tokens: "" or "highest", "lowest", "highestaudio", "lowestaudio",
// "highestvideo", "lowestvideo", a numeric itag, a quality label ("720p") or
// an audio quality ("AUDIO_QUALITY_MEDIUM"). With audioOnly set, only
// audio-only formats are considered.
func selectFormat(formats youtube.FormatList, quality string, audioOnly bool) (*youtube.Format, error) {
	pool := formats
	if audioOnly {
		pool = filterFormats(formats, isAudioOnly)
	}
	if len(pool) == 0 {
		return nil, ErrNoFormats
	}

	var picked *youtube.Format
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "", "highest":
		picked = pickFormat(preferMuxed(pool), true)
	case "lowest":
		picked = pickFormat(preferMuxed(pool), false)
	case "highestaudio":
		picked = pickFormat(preferAudioOnly(pool), true)
	case "lowestaudio":
		picked = pickFormat(preferAudioOnly(pool), false)
	case "highestvideo":
		picked = pickFormat(filterFormats(pool, hasVideo), true)
	case "lowestvideo":
		picked = pickFormat(filterFormats(pool, hasVideo), false)
	default:
		picked = matchFormat(pool, quality)
	}

	if picked == nil {
		return nil, fmt.Errorf("%w: %q", ErrFormatNotFound, quality)
	}
	return picked, nil
}

// matchFormat resolves an itag, quality label or audio quality token.
func matchFormat(pool youtube.FormatList, quality string) *youtube.Format {
	if itag, err := strconv.Atoi(quality); err == nil {
		for i := range pool {
			if pool[i].ItagNo == itag {
				return &pool[i]
			}
		}
		return nil
	}

	byLabel := filterFormats(pool, func(f *youtube.Format) bool { return f.QualityLabel == quality })
	if len(byLabel) > 0 {
		return pickFormat(preferMuxed(byLabel), true)
	}

	byAudio := filterFormats(pool, func(f *youtube.Format) bool { return f.AudioQuality == quality })
	if len(byAudio) > 0 {
		return pickFormat(byAudio, true)
	}
	return nil
}

// preferMuxed narrows pool to formats carrying both video and audio, when any exist.
func preferMuxed(pool youtube.FormatList) youtube.FormatList {
	muxed := filterFormats(pool, func(f *youtube.Format) bool { return hasVideo(f) && f.AudioChannels > 0 })
	if len(muxed) > 0 {
		return muxed
	}
	return pool
}

// preferAudioOnly narrows pool to audio-only formats, falling back to any
// format that carries audio.
func preferAudioOnly(pool youtube.FormatList) youtube.FormatList {
	if audio := filterFormats(pool, isAudioOnly); len(audio) > 0 {
		return audio
	}
	return filterFormats(pool, hasAudio)
}

// pickFormat returns the highest (or lowest) ranked format, first one wins ties.
func pickFormat(pool youtube.FormatList, highest bool) *youtube.Format {
	var picked *youtube.Format
	for i := range pool {
		f := &pool[i]
		if picked == nil {
			picked = f
			continue
		}
		cmp := compareFormats(f, picked)
		if (highest && cmp > 0) || (!highest && cmp < 0) {
			picked = f
		}
	}
	return picked
}

// compareFormats orders by resolution, then bitrate.
func compareFormats(a, b *youtube.Format) int {
	switch {
	case a.Height != b.Height:
		return a.Height - b.Height
	case a.Bitrate != b.Bitrate:
		return a.Bitrate - b.Bitrate
	default:
		return 0
	}
}

func filterFormats(formats youtube.FormatList, keep func(*youtube.Format) bool) youtube.FormatList {
	var out youtube.FormatList
	for i := range formats {
		if keep(&formats[i]) {
			out = append(out, formats[i])
		}
	}
	return out
}

func isAudioOnly(f *youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

func hasVideo(f *youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

func hasAudio(f *youtube.Format) bool {
	return isAudioOnly(f) || f.AudioChannels > 0
}
