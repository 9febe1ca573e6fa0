package transcoder

// DefaultVideoBitRate is the ceiling in kbps applied to every video stream
// in place of the player and user schemes.
const DefaultVideoBitRate = 2000

// EffectiveScheme combines the player and user schemes with an optional
// per-request maxBitRate override.
func EffectiveScheme(player, user Scheme, override *int) Scheme {
	requested := SchemeOff
	if override != nil {
		requested = SchemeFromMaxBitRate(*override)
	}
	return player.Strictest(user).Strictest(requested)
}

// IntrinsicBitRate returns the bitrate the file needs in kbps, 0 if unknown.
// Variable bitrate audio is scaled by 6/5 to approximate its constant
// bitrate equivalent, and audio is then rounded down to a canonical ceiling.
// Audio below the lowest ceiling keeps its own value.
func IntrinsicBitRate(file *MediaFile) int {
	if file.BitRate == nil || *file.BitRate <= 0 {
		return 0
	}
	bitRate := *file.BitRate
	if file.IsVideo {
		return bitRate
	}
	if file.VariableBitRate {
		bitRate = bitRate * 6 / 5
	}
	if scheme := SchemeFromMaxBitRate(bitRate); scheme != SchemeOff {
		return scheme.MaxBitRate()
	}
	return bitRate
}

// EffectiveMaxBitRate returns the bitrate the stream is capped at in kbps.
// Video is capped at DefaultVideoBitRate, audio at the scheme. The file's
// own bitrate is used when there is no ceiling or when it is already below
// the ceiling.
func EffectiveMaxBitRate(scheme Scheme, file *MediaFile, intrinsic int) int {
	ceiling := scheme.MaxBitRate()
	if file.IsVideo {
		ceiling = DefaultVideoBitRate
	}
	if ceiling == 0 || (intrinsic != 0 && intrinsic < ceiling) {
		return intrinsic
	}
	return ceiling
}
