// Package artifacts builds the upload artifacts for a prepared release.
//
// For each release the pipeline produces a torrent container, an NFO
// description, an XML manifest sidecar, and optionally a preview image. The
// torrent is built in-process; the NFO and preview shell out to mediainfo
// and ffmpeg when those tools are installed and degrade gracefully when
// they are not.
package artifacts
