package player

// EventType discriminates the typed notifications a backend can emit.
type EventType int

const (
	EventTime EventType = iota
	EventDuration
	EventPlayState
	EventLoadState
	EventVolume
	EventMute
	EventSpeed
	EventEnd
	EventFail
)

// Event is a single typed notification emitted by a backend onto the
// controller-owned sink. One goroutine drains the sink and applies
// events to the observable state, so no backend callback ever touches
// shared state from its native calling context.
type Event struct {
	Type    EventType
	Float   float64
	Bool    bool
	Message string
}

// TimeUpdated reports the current playback position in seconds.
func TimeUpdated(seconds float64) Event {
	return Event{Type: EventTime, Float: seconds}
}

// DurationKnown reports the total media duration in seconds.
func DurationKnown(seconds float64) Event {
	return Event{Type: EventDuration, Float: seconds}
}

// PlayStateChanged reports whether playback is currently running.
func PlayStateChanged(playing bool) Event {
	return Event{Type: EventPlayState, Bool: playing}
}

// LoadStateChanged reports whether a media file is initialized and active.
func LoadStateChanged(loaded bool) Event {
	return Event{Type: EventLoadState, Bool: loaded}
}

// VolumeChanged reports the normalized volume observed on the backend.
func VolumeChanged(volume float64) Event {
	return Event{Type: EventVolume, Float: volume}
}

// MuteChanged reports the mute flag observed on the backend.
func MuteChanged(muted bool) Event {
	return Event{Type: EventMute, Bool: muted}
}

// SpeedChanged reports the playback rate multiplier observed on the backend.
func SpeedChanged(multiplier float64) Event {
	return Event{Type: EventSpeed, Float: multiplier}
}

// EndOfMedia signals that the current file played to its end.
func EndOfMedia() Event {
	return Event{Type: EventEnd}
}

// Failed carries a human-readable backend failure message.
func Failed(message string) Event {
	return Event{Type: EventFail, Message: message}
}
