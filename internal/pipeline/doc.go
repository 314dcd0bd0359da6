// Package pipeline runs a queue item through the upload flow: duplicate
// check, metadata extraction, artifact generation, tracker submission, and
// seeding handoff.
package pipeline
