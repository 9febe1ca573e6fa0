// Command transcodectl manages the transcoding catalog of a media streamer
// database.
//
// It supports the following operations:
//   - presets, players: List registered presets and known players
//   - assign: Choose which presets a player uses
//   - add-preset, delete-preset: Maintain the preset catalog
//   - add-media: Catalog a media file so it can be streamed by ID
//   - set-user-scheme, set-player-scheme: Apply bitrate limits
//
// Usage:
//
//	transcodectl <command> [arguments]
//
// Commands:
//
//	presets            List presets with their source and target formats.
//
//	players            List players, their owners, bitrate schemes and the
//	                   IDs of their active presets. Players are created by
//	                   the server on their first stream request.
//
//	assign <player> <id,...>
//	                   Replace the presets active for a player.
//
//	add-preset [-default] <name> <sources> <target> <step1> [step2] [step3]
//	                   Register a preset. Steps are command templates using
//	                   %s, %b, %t, %a, %l, %o, %d, %w and %h. With -default
//	                   the preset is activated for every player.
//
//	delete-preset <id> Delete a preset. Asks for confirmation when run
//	                   from a terminal.
//
//	add-media [flags] <path>
//	                   Record a media file and its metadata.
//
//	set-user-scheme <username> <scheme>
//	set-player-scheme <player> <scheme>
//	                   Set a bitrate limit. A scheme is OFF or a bitrate in
//	                   kbps. The stricter of the user and player limits
//	                   applies.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//
// Notes:
//
// The server reads presets and players on every stream request, so changes
// take effect without a restart.
package main
