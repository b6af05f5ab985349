package upload

import (
	"log/slog"
	"sync"
)

// InputEvent is the payload of a file picker change.
type InputEvent struct {
	Files []*File
}

// DropEvent is the payload of a drag-and-drop. Files is nil when the drop
// carried no file list.
type DropEvent struct {
	Files            []*File
	DefaultPrevented bool
}

// PreventDefault marks the drop as handled.
func (e *DropEvent) PreventDefault() {
	e.DefaultPrevented = true
}

// Session holds the file currently selected for upload, its preview handle
// and the last validation error. At most one preview handle is live at a
// time: replacing or clearing the selection revokes the previous one.
type Session struct {
	previews PreviewStore

	mu           sync.Mutex
	selectedFile *File
	previewURL   string
	uploadError  string
}

// NewSession creates an empty session allocating previews from previews.
func NewSession(previews PreviewStore) *Session {
	return &Session{previews: previews}
}

// SelectFile validates file and, when valid, makes it the current selection.
// An invalid file sets the upload error and leaves the previous selection and
// preview untouched.
func (s *Session) SelectFile(file *File) bool {
	if err := Validate(file); err != nil {
		s.mu.Lock()
		s.uploadError = err.Error()
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadError = ""
	s.selectedFile = file

	if s.previewURL != "" {
		s.previews.Revoke(s.previewURL)
		s.previewURL = ""
	}

	handle, err := s.previews.Create(file)
	if err != nil {
		slog.Warn("could not create preview", "file", file.Name, "error", err)
		return true
	}
	s.previewURL = handle

	return true
}

// ClearFile drops the selection, its preview and any error.
func (s *Session) ClearFile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedFile = nil
	s.uploadError = ""

	if s.previewURL != "" {
		s.previews.Revoke(s.previewURL)
		s.previewURL = ""
	}
}

// HandleFileInput selects the first file of a picker event. Nothing changes
// when the event carries no file.
func (s *Session) HandleFileInput(event InputEvent) {
	if len(event.Files) == 0 || event.Files[0] == nil {
		return
	}
	s.SelectFile(event.Files[0])
}

// HandleFileDrop always prevents the default drop handling, then selects the
// first dropped file if there is one.
func (s *Session) HandleFileDrop(event *DropEvent) {
	if event == nil {
		return
	}
	event.PreventDefault()

	if len(event.Files) == 0 || event.Files[0] == nil {
		return
	}
	s.SelectFile(event.Files[0])
}

// SelectedFile returns the current selection or nil.
func (s *Session) SelectedFile() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedFile
}

// PreviewURL returns the live preview handle or "".
func (s *Session) PreviewURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewURL
}

// UploadError returns the last validation error or "".
func (s *Session) UploadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadError
}
