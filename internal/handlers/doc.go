// Package handlers provides the HTTP handlers of the streaming server.
//
// It includes handlers for:
//   - Streaming media files, transcoded for the requesting player
//   - Inspecting how a file would be streamed without opening it
//   - Listing transcoding presets and assigning them to players
//   - Listing active streams
//   - Health checks and version information
package handlers
