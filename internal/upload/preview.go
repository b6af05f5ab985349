package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder for previews
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder for previews
)

// PreviewStore allocates and releases preview handles for selected files.
// A handle is an opaque string the presentation layer can render from.
type PreviewStore interface {
	Create(file *File) (string, error)
	Revoke(handle string)
}

// ThumbnailStore renders previews as downscaled JPEG files in a directory and
// hands out file:// URLs to them. Revoke deletes the file.
type ThumbnailStore struct {
	dir     string
	maxSize int

	mu   sync.Mutex
	seq  int
	live map[string]string // handle -> path
}

// NewThumbnailStore creates a store writing into dir. An empty dir uses a
// fresh temporary directory.
func NewThumbnailStore(dir string, maxSize int) (*ThumbnailStore, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "how-are-u-preview-*")
		if err != nil {
			return nil, fmt.Errorf("could not create preview directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create preview directory: %w", err)
	}

	return &ThumbnailStore{
		dir:     dir,
		maxSize: maxSize,
		live:    make(map[string]string),
	}, nil
}

// Create writes a preview for file and returns its handle. Files that cannot
// be decoded as images are copied as-is.
func (s *ThumbnailStore) Create(file *File) (string, error) {
	data, err := file.ReadAll()
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(file.Name)
	if thumb, err := resizePreview(data, s.maxSize); err == nil {
		data = thumb
		ext = ".jpg"
	}

	s.mu.Lock()
	s.seq++
	name := "preview-" + strconv.Itoa(s.seq) + ext
	s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("could not write preview: %w", err)
	}

	handle := (&url.URL{Scheme: "file", Path: path}).String()

	s.mu.Lock()
	s.live[handle] = path
	s.mu.Unlock()

	return handle, nil
}

// Revoke deletes the preview behind handle. Unknown handles are ignored.
func (s *ThumbnailStore) Revoke(handle string) {
	s.mu.Lock()
	path, ok := s.live[handle]
	delete(s.live, handle)
	s.mu.Unlock()

	if ok {
		_ = os.Remove(path)
	}
}

// Live returns the number of previews not yet revoked.
func (s *ThumbnailStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Dir returns the directory previews are written to.
func (s *ThumbnailStore) Dir() string {
	return s.dir
}

// MemoryPreviews hands out opaque "preview:<n>" handles without touching the
// file content.
type MemoryPreviews struct {
	mu      sync.Mutex
	seq     int
	live    map[string]struct{}
	created int
	revoked int
}

// NewMemoryPreviews creates an empty in-memory preview store.
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{live: make(map[string]struct{})}
}

// Create allocates a new handle.
func (m *MemoryPreviews) Create(_ *File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.created++
	handle := "preview:" + strconv.Itoa(m.seq)
	m.live[handle] = struct{}{}
	return handle, nil
}

// Revoke releases handle. Unknown handles are ignored.
func (m *MemoryPreviews) Revoke(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[handle]; ok {
		delete(m.live, handle)
		m.revoked++
	}
}

// Stats returns how many handles were created, revoked and are still live.
func (m *MemoryPreviews) Stats() (created, revoked, live int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.revoked, len(m.live)
}

// resizePreview scales an image to fit within maxSize and encodes it as JPEG.
func resizePreview(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := width, height
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
	}

	resized := image.NewRGBA(image.Rect(0, 0, max(newWidth, 1), max(newHeight, 1)))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
