package core

// ArtifactStore defines the interface for artifact persistence. Implementations
// should be thread-safe and scope artifacts by conversation identifier. Short
// method names (Save/Get/List/Delete) mirror other store interfaces for
// consistency.
type ArtifactStore interface {
	Save(conversationID, artifactID string, data []byte) error
	Get(conversationID, artifactID string) ([]byte, error)
	List(conversationID string) ([]string, error)
	Delete(conversationID, artifactID string) error
}
