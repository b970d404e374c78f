package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFirstProjectOptions(t *testing.T) {
	opts := firstProjectOptions()
	require.NotNil(t, opts.Sort)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, opts.Sort)
}
