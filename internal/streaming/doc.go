/*
Package streaming delivers media streams to HTTP clients and tracks them per
player.

# Timeout-protected writes

Slow or vanished clients must not pin an encoder chain forever. A
[TimeoutWriter] bounds every write, cancels after an idle period and stops
as soon as the request context ends:

	config := streaming.DefaultTimeoutWriterConfig()
	config.OnWrite = status.AddBytes
	n, err := streaming.Copy(r.Context(), w, stream, config)
	if errors.Is(err, streaming.ErrClientGone) {
		// normal end of playback
	}

Copy never sets headers; the caller decides between Content-Length and
chunked transfer.

# Player stream status

A [Registry] records the active stream of each player. Starting a new
stream normally terminates the player's earlier ones, so a device that skips
tracks does not leave encoders running behind it:

	registry.CloseAllFor(player.ID, file.Podcast, singleFile)
	ctx, status := registry.Start(r.Context(), player.ID, file.Path)
	defer registry.Finish(status)

Podcast episodes and single-file playback are exempt and may run alongside
other streams of the same player.

# Padding

When a stream is cut short after a Content-Length was promised,
[SendPaddingDelayed] completes the response with 0xFF filler after a short
delay. Clients then see a finished response rather than a broken one and do
not reconnect immediately.
*/
package streaming
