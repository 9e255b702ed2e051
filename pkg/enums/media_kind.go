package enums

import "fmt"

// MediaKind selects the messaging endpoint used for a publication.
type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

// String implements fmt.Stringer.
func (m MediaKind) String() string {
	return string(m)
}

// IsValid reports whether the kind is known.
func (m MediaKind) IsValid() bool {
	return m == MediaKindPhoto || m == MediaKindVideo
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	switch MediaKind(value) {
	case MediaKindPhoto, MediaKindVideo:
		return MediaKind(value), nil
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}

// AspectRatio is the framing requested from image and video synthesis.
type AspectRatio string

const (
	AspectRatioSquare   AspectRatio = "1:1"
	AspectRatioPortrait AspectRatio = "9:16"
)

// String implements fmt.Stringer.
func (a AspectRatio) String() string {
	return string(a)
}

// IsValid reports whether the ratio is supported.
func (a AspectRatio) IsValid() bool {
	return a == AspectRatioSquare || a == AspectRatioPortrait
}

// ParseAspectRatio converts raw input into an AspectRatio; blank input yields the square default.
func ParseAspectRatio(value string) (AspectRatio, error) {
	switch AspectRatio(value) {
	case "":
		return AspectRatioSquare, nil
	case AspectRatioSquare, AspectRatioPortrait:
		return AspectRatio(value), nil
	}
	return "", fmt.Errorf("invalid aspect ratio %q", value)
}

// ForVideo maps the ratio onto what the video model renders; square frames become portrait reels.
func (a AspectRatio) ForVideo() AspectRatio {
	if a == AspectRatioSquare || a == "" {
		return AspectRatioPortrait
	}
	return a
}
