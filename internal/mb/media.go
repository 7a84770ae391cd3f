package mb

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MediaType is the kind of item stored in a folder. Each variant has its
// own Renderer.
type MediaType uint8

const (
	MediaNote MediaType = iota + 1
	MediaImage
	MediaVideo
	MediaPDF
	MediaAudio
)

var mediaTypeNames = map[MediaType]string{
	MediaNote:  "note",
	MediaImage: "image",
	MediaVideo: "video",
	MediaPDF:   "pdf",
	MediaAudio: "audio",
}

// MediaTypes lists every variant in display order.
func MediaTypes() []MediaType {
	return []MediaType{MediaNote, MediaImage, MediaVideo, MediaPDF, MediaAudio}
}

func (t MediaType) String() string {
	if name, ok := mediaTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MediaType(%d)", uint8(t))
}

// Valid reports whether t is one of the known variants.
func (t MediaType) Valid() bool {
	_, ok := mediaTypeNames[t]
	return ok
}

// ParseMediaType maps the stored name of a media type back to its variant.
func ParseMediaType(s string) (MediaType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range mediaTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown media type: %q", s)
}

// MarshalText encodes the zero MediaType as an empty string so entries
// whose file details are unknown still round-trip.
func (t MediaType) MarshalText() ([]byte, error) {
	if t == 0 {
		return []byte{}, nil
	}
	if !t.Valid() {
		return nil, fmt.Errorf("invalid media type: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *MediaType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = 0
		return nil
	}
	parsed, err := ParseMediaType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AcceptsMIME reports whether an upload with the given MIME type may be
// stored as t. Notes are authored inline and accept no uploads.
func (t MediaType) AcceptsMIME(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch t {
	case MediaImage:
		return strings.HasPrefix(mimeType, "image/")
	case MediaVideo:
		return strings.HasPrefix(mimeType, "video/")
	case MediaPDF:
		return mimeType == "application/pdf"
	case MediaAudio:
		return strings.HasPrefix(mimeType, "audio/")
	default:
		return false
	}
}

// extensionMIME covers the common media extensions so detection does not
// depend on the host's mime.types.
var extensionMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".pdf":  "application/pdf",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// MIMETypeForFile returns the MIME type implied by name's extension, or
// application/octet-stream when it is unknown.
func MIMETypeForFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := extensionMIME[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

// MediaTypeForFile infers the media type of an upload from its name.
// The second result is false when no uploadable variant accepts it.
func MediaTypeForFile(name string) (MediaType, bool) {
	m := MIMETypeForFile(name)
	for _, t := range []MediaType{MediaImage, MediaVideo, MediaPDF, MediaAudio} {
		if t.AcceptsMIME(m) {
			return t, true
		}
	}
	return 0, false
}

// Player is the viewer surface a file is shown in.
type Player string

const (
	PlayerText  Player = "text"
	PlayerImage Player = "image"
	PlayerVideo Player = "video"
	PlayerPDF   Player = "pdf"
)

// View is the rendered form of a file for the media viewer.
type View struct {
	FileID   string
	Title    string
	Type     MediaType
	Player   Player
	Text     string // notes only
	Source   string // URL of the stored object; empty for notes
	Favorite bool
}

// Renderer turns a file of one media type into its viewer and card forms.
type Renderer interface {
	Render(f *File, sourceURL string) View
	Preview(f *File) string
}

const notePreviewLen = 100

type noteRenderer struct{}

func (noteRenderer) Render(f *File, _ string) View {
	return View{FileID: f.ID, Title: f.Name, Type: MediaNote, Player: PlayerText, Text: f.Content}
}

func (noteRenderer) Preview(f *File) string {
	if f.Content == "" {
		return "Text note"
	}
	runes := []rune(f.Content)
	if len(runes) <= notePreviewLen {
		return f.Content
	}
	return string(runes[:notePreviewLen]) + "..."
}

// blobRenderer renders every media type that is backed by an uploaded object.
type blobRenderer struct {
	typ    MediaType
	player Player
	label  string
}

func (r blobRenderer) Render(f *File, sourceURL string) View {
	return View{FileID: f.ID, Title: f.Name, Type: r.typ, Player: r.player, Source: sourceURL}
}

func (r blobRenderer) Preview(*File) string { return r.label }

var renderers = map[MediaType]Renderer{
	MediaNote:  noteRenderer{},
	MediaImage: blobRenderer{typ: MediaImage, player: PlayerImage, label: "Image"},
	MediaVideo: blobRenderer{typ: MediaVideo, player: PlayerVideo, label: "Video"},
	MediaPDF:   blobRenderer{typ: MediaPDF, player: PlayerPDF, label: "PDF document"},
	// Audio plays in the video player.
	MediaAudio: blobRenderer{typ: MediaAudio, player: PlayerVideo, label: "Audio file"},
}

// Renderer returns the renderer for t, or an error for an unknown variant.
func (t MediaType) Renderer() (Renderer, error) {
	r, ok := renderers[t]
	if !ok {
		return nil, fmt.Errorf("unsupported media type for viewing: %s", t)
	}
	return r, nil
}
