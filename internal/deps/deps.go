package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary torrup shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Torrup returns the external binaries the daemon uses. All of them are
// optional: extraction, media info, and previews degrade to empty output
// when a binary is missing.
func Torrup() []Requirement {
	return []Requirement{
		{Name: "ExifTool", Command: "exiftool", Description: "Metadata extraction", Optional: true},
		{Name: "FFprobe", Command: "ffprobe", Description: "Audio and video probing", Optional: true},
		{Name: "FFmpeg", Command: "ffmpeg", Description: "Preview thumbnails", Optional: true},
		{Name: "MediaInfo", Command: "mediainfo", Description: "NFO media info section", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
