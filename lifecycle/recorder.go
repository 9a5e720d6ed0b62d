package lifecycle

// Recorder receives lifecycle outcome counts. observability.Recorder
// satisfies it.
type Recorder interface {
	RegistrationSucceeded(service string)
	RegistrationFailed(service string)
	HeartbeatSucceeded(service string)
	HeartbeatFailed(service string)
}

type nopRecorder struct{}

func (nopRecorder) RegistrationSucceeded(string) {}
func (nopRecorder) RegistrationFailed(string)    {}
func (nopRecorder) HeartbeatSucceeded(string)    {}
func (nopRecorder) HeartbeatFailed(string)       {}
