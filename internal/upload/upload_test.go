package upload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

func sizedFile(name, mimeType string, size int64) *File {
	return NewFile(name, mimeType, size, nil)
}

func TestValidate_RejectsDisallowedTypeRegardlessOfSize(t *testing.T) {
	sizes := []int64{0, 1024, constants.MaxFileSize, constants.MaxFileSize + 1, 50 << 20}
	types := []string{"image/gif", "application/pdf", "text/plain", "", "image/JPEG"}

	for _, mimeType := range types {
		for _, size := range sizes {
			err := Validate(sizedFile("x", mimeType, size))
			if !errors.Is(err, ErrInvalidType) {
				t.Errorf("type %q size %d: expected type error, got %v", mimeType, size, err)
			}
		}
	}
}

func TestValidate_AcceptsAllowedTypesWithinLimit(t *testing.T) {
	for _, mimeType := range constants.AcceptedImageTypes {
		for _, size := range []int64{0, 1, 1024, constants.MaxFileSize} {
			if err := Validate(sizedFile("x", mimeType, size)); err != nil {
				t.Errorf("type %q size %d: expected nil, got %v", mimeType, size, err)
			}
		}
	}
}

func TestValidate_RejectsOversizedAllowedTypes(t *testing.T) {
	for _, mimeType := range constants.AcceptedImageTypes {
		err := Validate(sizedFile("x", mimeType, constants.MaxFileSize+1))
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("type %q: expected size error, got %v", mimeType, err)
		}
	}
}

func TestValidate_Messages(t *testing.T) {
	if ErrTooLarge.Error() != "El archivo es muy grande. Máximo 10MB permitidos." {
		t.Errorf("unexpected size message %q", ErrTooLarge.Error())
	}
	if ErrInvalidType.Error() != "Tipo de archivo no válido. Solo se permiten JPG, PNG y WebP." {
		t.Errorf("unexpected type message %q", ErrInvalidType.Error())
	}
}

func TestSession_SelectSmallJPEG(t *testing.T) {
	previews := NewMemoryPreviews()
	session := NewSession(previews)

	file := NewBytesFile("face.jpg", constants.MIMEJPEG, make([]byte, 1024))
	if !session.SelectFile(file) {
		t.Fatal("expected SelectFile to succeed")
	}
	if session.UploadError() != "" {
		t.Errorf("expected no upload error, got %q", session.UploadError())
	}
	if session.PreviewURL() == "" {
		t.Error("expected preview handle to be set")
	}
	if session.SelectedFile() != file {
		t.Error("expected file to be selected")
	}
}

func TestSession_SelectOversizedJPEG(t *testing.T) {
	session := NewSession(NewMemoryPreviews())

	if session.SelectFile(sizedFile("big.jpg", constants.MIMEJPEG, 11<<20)) {
		t.Fatal("expected SelectFile to fail")
	}
	if session.UploadError() != ErrTooLarge.Message {
		t.Errorf("expected size message, got %q", session.UploadError())
	}
	if session.SelectedFile() != nil {
		t.Error("expected no selection")
	}
}

func TestSession_InvalidSelectionKeepsPrevious(t *testing.T) {
	previews := NewMemoryPreviews()
	session := NewSession(previews)

	good := NewBytesFile("a.png", constants.MIMEPNG, []byte("png"))
	session.SelectFile(good)
	preview := session.PreviewURL()

	session.SelectFile(sizedFile("doc.pdf", "application/pdf", 10))

	if session.SelectedFile() != good {
		t.Error("expected previous selection to be kept")
	}
	if session.PreviewURL() != preview {
		t.Errorf("expected preview %q to be kept, got %q", preview, session.PreviewURL())
	}
	if session.UploadError() != ErrInvalidType.Message {
		t.Errorf("expected type error, got %q", session.UploadError())
	}

	created, revoked, live := previews.Stats()
	if created != 1 || revoked != 0 || live != 1 {
		t.Errorf("expected 1/0/1 previews, got %d/%d/%d", created, revoked, live)
	}
}

func TestSession_ReplaceReleasesExactlyOnePreview(t *testing.T) {
	previews := NewMemoryPreviews()
	session := NewSession(previews)

	session.SelectFile(NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("a")))
	first := session.PreviewURL()
	session.SelectFile(NewBytesFile("b.webp", constants.MIMEWebP, []byte("b")))

	created, revoked, live := previews.Stats()
	if created != 2 || revoked != 1 || live != 1 {
		t.Errorf("expected 2/1/1 previews, got %d/%d/%d", created, revoked, live)
	}
	if session.PreviewURL() == first {
		t.Error("expected a new preview handle")
	}

	session.ClearFile()

	created, revoked, live = previews.Stats()
	if created != 2 || revoked != 2 || live != 0 {
		t.Errorf("expected 2/2/0 previews after clear, got %d/%d/%d", created, revoked, live)
	}
	if session.PreviewURL() != "" || session.SelectedFile() != nil || session.UploadError() != "" {
		t.Error("expected session to be empty after clear")
	}
}

func TestSession_ClearAlsoResetsError(t *testing.T) {
	session := NewSession(NewMemoryPreviews())
	session.SelectFile(sizedFile("x.gif", "image/gif", 1))

	session.ClearFile()

	if session.UploadError() != "" {
		t.Errorf("expected error to be cleared, got %q", session.UploadError())
	}
}

func TestSession_HandleFileInput(t *testing.T) {
	session := NewSession(NewMemoryPreviews())
	session.SelectFile(sizedFile("x.gif", "image/gif", 1))

	// No file: nothing changes, not even the error.
	session.HandleFileInput(InputEvent{})
	if session.UploadError() == "" {
		t.Error("expected empty input event to leave the error in place")
	}

	file := NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("a"))
	second := NewBytesFile("b.jpg", constants.MIMEJPEG, []byte("b"))
	session.HandleFileInput(InputEvent{Files: []*File{file, second}})
	if session.SelectedFile() != file {
		t.Error("expected the first file to be selected")
	}
}

func TestSession_HandleFileDrop(t *testing.T) {
	session := NewSession(NewMemoryPreviews())

	empty := &DropEvent{}
	session.HandleFileDrop(empty)
	if !empty.DefaultPrevented {
		t.Error("expected default to be prevented for an empty drop")
	}
	if session.SelectedFile() != nil {
		t.Error("expected no selection after empty drop")
	}

	file := NewBytesFile("a.png", constants.MIMEPNG, []byte("a"))
	drop := &DropEvent{Files: []*File{file}}
	session.HandleFileDrop(drop)
	if !drop.DefaultPrevented {
		t.Error("expected default to be prevented")
	}
	if session.SelectedFile() != file {
		t.Error("expected dropped file to be selected")
	}

	session.HandleFileDrop(nil)
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailStore_CreateAndRevoke(t *testing.T) {
	store, err := NewThumbnailStore(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("NewThumbnailStore failed: %v", err)
	}

	file := NewBytesFile("face.png", constants.MIMEPNG, testPNG(t, 200, 100))
	handle, err := store.Create(file)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	u, err := url.Parse(handle)
	if err != nil || u.Scheme != "file" {
		t.Fatalf("expected file URL, got %q", handle)
	}
	if filepath.Ext(u.Path) != ".jpg" {
		t.Errorf("expected jpeg preview, got %s", u.Path)
	}

	f, err := os.Open(u.Path)
	if err != nil {
		t.Fatalf("preview file missing: %v", err)
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatalf("preview not decodable: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("expected 64x32 preview, got %dx%d", cfg.Width, cfg.Height)
	}
	if store.Live() != 1 {
		t.Errorf("expected 1 live preview, got %d", store.Live())
	}

	store.Revoke(handle)
	if _, err := os.Stat(u.Path); !os.IsNotExist(err) {
		t.Error("expected preview file to be removed")
	}
	if store.Live() != 0 {
		t.Errorf("expected 0 live previews, got %d", store.Live())
	}
}

func TestThumbnailStore_UndecodableDataIsCopied(t *testing.T) {
	store, err := NewThumbnailStore(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("NewThumbnailStore failed: %v", err)
	}

	handle, err := store.Create(NewBytesFile("x.webp", constants.MIMEWebP, []byte("not really webp")))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	u, _ := url.Parse(handle)
	data, err := os.ReadFile(u.Path)
	if err != nil {
		t.Fatalf("preview file missing: %v", err)
	}
	if string(data) != "not really webp" {
		t.Errorf("expected raw copy, got %q", data)
	}
}

func TestFromPath_SniffsType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.bin")
	if err := os.WriteFile(path, testPNG(t, 4, 4), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	file, err := FromPath(path)
	if err != nil {
		t.Fatalf("FromPath failed: %v", err)
	}
	if file.Type != constants.MIMEPNG {
		t.Errorf("expected image/png, got %q", file.Type)
	}
	if file.Name != "photo.bin" {
		t.Errorf("expected name photo.bin, got %q", file.Name)
	}

	if _, err := FromPath(dir); err == nil {
		t.Error("expected error for directory")
	}
}
