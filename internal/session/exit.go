package session

// Exit decides when a windowed run may stop. A run ends when the user quits
// or the time limit is reached, but when a screenshot was asked for it first
// waits for one more drawn frame to be captured.
type Exit struct {
	capture  bool
	quitting bool
	captured bool
}

// NewExit returns an Exit that holds the run open for a final capture when
// capture is set.
func NewExit(capture bool) *Exit {
	return &Exit{capture: capture}
}

// Quit records a request to stop, e.g. Escape or the window close button.
func (x *Exit) Quit() { x.quitting = true }

// Finishing reports whether the run is over and no more frames should be
// advanced. done is the time limit state of the session.
func (x *Exit) Finishing(done bool) bool {
	return x.quitting || done
}

// Pending reports whether the next drawn frame must be captured.
func (x *Exit) Pending(done bool) bool {
	return x.capture && !x.captured && x.Finishing(done)
}

// Captured records that the final frame has been saved.
func (x *Exit) Captured() { x.captured = true }

// Stop reports whether the game loop should end now.
func (x *Exit) Stop(done bool) bool {
	return x.Finishing(done) && (!x.capture || x.captured)
}
