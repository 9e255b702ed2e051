package publishing

import (
	"strings"

	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/telegram"
)

// ResolveMedia turns a stored media reference into an upload or a URL the platform fetches itself.
func ResolveMedia(ref string, kind enums.MediaKind) (telegram.Media, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return telegram.Media{}, pkgerrors.New(pkgerrors.CodeValidation, "media reference is required")
	case dataurl.IsDataURL(ref):
		mediaType, data, err := dataurl.Decode(ref)
		if err != nil {
			return telegram.Media{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode media reference")
		}
		if len(data) == 0 {
			return telegram.Media{}, pkgerrors.New(pkgerrors.CodeValidation, "media reference is empty")
		}
		return telegram.Media{Data: data, FileName: defaultFileName(kind), ContentType: mediaType}, nil
	case strings.HasPrefix(ref, "blob:"):
		return telegram.Media{}, pkgerrors.New(pkgerrors.CodeValidation, "browser-local media references cannot be published")
	case isRemote(ref):
		return telegram.Media{URL: ref}, nil
	}
	return telegram.Media{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported media reference")
}

func defaultFileName(kind enums.MediaKind) string {
	if kind == enums.MediaKindVideo {
		return "video.mp4"
	}
	return "photo.jpg"
}
