package snapshot

import "errors"

var (
	// ErrBuild means serialization or compression failed. Fatal to the run.
	ErrBuild = errors.New("snapshot build failed")

	// ErrPublish means one of the two uploads failed. Fatal; a partial
	// upload may stay behind since no metadata row follows it.
	ErrPublish = errors.New("snapshot publish failed")

	// ErrMetadataRecord means the append failed after a successful
	// publish: the artifact exists but is not discoverable. Logged
	// distinctly so an operator can verify and re-run instead of
	// silently losing a good artifact.
	ErrMetadataRecord = errors.New("snapshot metadata record failed")

	// ErrRunInProgress means another pipeline run holds the run lock
	ErrRunInProgress = errors.New("snapshot pipeline run already in progress")

	// ErrNoSnapshot is the read path's "service warming up" state:
	// nothing has ever been published. Not a fault.
	ErrNoSnapshot = errors.New("no snapshot published yet")
)
