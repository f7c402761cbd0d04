package models

// ArtifactState tags the lifecycle of a generated image.
type ArtifactState string

const (
	ArtifactPending ArtifactState = "pending"
	ArtifactReady   ArtifactState = "ready"
	ArtifactFailed  ArtifactState = "failed"
)

// Artifact is a generated image slot. A failed generation keeps its error
// message here instead of overloading the URL column, so the UI can offer a
// per-artifact retry without re-running the expensive colored generation.
type Artifact struct {
	State ArtifactState `json:"state"`
	URL   string        `json:"url,omitempty"`
	Error string        `json:"error,omitempty"`
}

func PendingArtifact() Artifact {
	return Artifact{State: ArtifactPending}
}

func ReadyArtifact(url string) Artifact {
	return Artifact{State: ArtifactReady, URL: url}
}

func FailedArtifact(message string) Artifact {
	return Artifact{State: ArtifactFailed, Error: message}
}

// IsReady reports whether the artifact holds a committed image URL.
func (a Artifact) IsReady() bool {
	return a.State == ArtifactReady && a.URL != ""
}
