package objectstore

import "github.com/google/uuid"

// newPeerID generates the id an object store reports from ID() the first
// time its directory is opened.
func newPeerID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
