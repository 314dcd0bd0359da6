// Package seeding hands uploaded torrents to a local qBittorrent instance
// so releases start seeding immediately after submission.
package seeding
