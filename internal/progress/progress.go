// Package progress produces the single upload percentage shown to users.
//
// An analysis has two phases: the image bytes travel to the API, then the API
// scores the face. Transport progress only covers the first phase, so it is
// scaled into the lower band (0-70%) and a Blender animates the remaining
// band while the response is awaited.
package progress

import "math"

// UploadProgress is one progress update. Percentage is in [0,100].
type UploadProgress struct {
	Loaded     int64 `json:"loaded"`
	Total      int64 `json:"total"`
	Percentage int   `json:"percentage"`
}

// Scale maps loaded/total bytes onto [0, ceiling], rounded to the nearest
// integer. A non-positive total yields 0.
func Scale(loaded, total int64, ceiling int) int {
	if total <= 0 {
		return 0
	}
	if loaded > total {
		loaded = total
	}
	return int(math.Round(float64(loaded) / float64(total) * float64(ceiling)))
}
