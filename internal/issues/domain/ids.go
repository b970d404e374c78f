package domain

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID generates a 24-char hex object id, the id format used by every store.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ParseID validates a hex object id.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}
