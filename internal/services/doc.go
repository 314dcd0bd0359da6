// Package services holds cross-cutting helpers shared by the pipeline
// components: error classification markers and message sanitization.
package services
