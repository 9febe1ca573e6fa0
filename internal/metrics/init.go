package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	modes := []string{"raw", "transcode", "hls"}
	for _, mode := range modes {
		StreamsStarted.WithLabelValues(mode)
		StreamBytesTotal.WithLabelValues(mode)
		for _, result := range []string{"complete", "terminated", "client_gone", "timeout", "error"} {
			StreamDuration.WithLabelValues(mode, result)
		}
	}

	for _, kind := range []string{"media_file", "player", "transcoding"} {
		CatalogItems.WithLabelValues(kind)
	}

	for _, op := range []string{"stat", "open"} {
		for _, vol := range []string{"media", "transcode", "database", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "get_media_file", "get_media_file_by_path",
		"upsert_media_file", "get_player", "list_players", "upsert_player", "list_transcodings",
		"get_transcoding", "transcodings_for_player", "set_player_transcodings", "delete_transcoding",
		"create_transcoding", "user_scheme", "set_user_scheme", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
