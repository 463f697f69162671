package upload

import (
	"time"

	"github.com/rs/zerolog"
)

// State is a step of one upload's lifecycle
type State string

const (
	StateReceived          State = "received"
	StateValidated         State = "validated"
	StatePersisted         State = "persisted"
	StateExtracted         State = "extracted"
	StateMaterialized      State = "materialized"
	StateNameResolved      State = "name_resolved"
	StateRepositoryCreated State = "repository_created"
	StateFilesWritten      State = "files_written"
	StateReadmeEnsured     State = "readme_ensured"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// tracker records the current state of one upload and logs each transition
type tracker struct {
	state   State
	logger  zerolog.Logger
	nowFunc func() time.Time
	entered time.Time
}

func newTracker(logger zerolog.Logger, nowFunc func() time.Time) *tracker {
	t := &tracker{state: StateReceived, logger: logger, nowFunc: nowFunc, entered: nowFunc()}
	t.logger.Debug().Str("state", string(StateReceived)).Msg("upload received")
	return t
}

func (t *tracker) advance(to State) {
	now := t.nowFunc()
	t.logger.Debug().
		Str("from", string(t.state)).
		Str("to", string(to)).
		Dur("elapsed", now.Sub(t.entered)).
		Msg("upload state changed")
	t.state = to
	t.entered = now
}

// fail moves to StateFailed and returns err unchanged
func (t *tracker) fail(err error) error {
	t.logger.Err(err).Str("state", string(t.state)).Msg("upload failed")
	t.state = StateFailed
	return err
}
