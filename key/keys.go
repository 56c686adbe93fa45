// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Engine - these keys govern backend selection and initial playback parameters.
const (
	PlayerVolume         = "player.volume"
	PlayerSpeed          = "player.speed"
	PlayerHardwareDecode = "player.hardware_decode"
	PlayerResumePlayback = "player.resume_playback"
	PlayerSaveInterval   = "player.save_interval"
)

// Library Management - these keys configure folder scanning and entry discovery.
const (
	LibraryScanDepth    = "library.scan_depth"
	LibraryWatchFolders = "library.watch_folders"
	LibraryAutoAdvance  = "library.auto_advance"
)

// Thumbnail Cache - these keys control sidecar discovery and frame extraction.
const (
	ThumbsGenerate = "thumbs.generate"
	ThumbsWidth    = "thumbs.width"
)

// Iconography - these keys manage the visual rendering of CLI symbols.
const (
	IconsVariant = "icons.variant"
)

// Diagnostics - these keys configure the persistence of application logs.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Command Line Interface - these keys define the CLI's presentation behavior.
const (
	CliColored = "cli.colored"
)
