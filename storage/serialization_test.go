package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklore/worklore/core"
)

func TestMarshalUnmarshalRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	record := &core.Record{
		Id:            core.ID(42),
		Category:      core.CategoryIncident,
		Title:         "Payment gateway outage",
		Body:          "Gateway returned 503s for ~12 minutes. Root cause: cert rotation.",
		Tags:          []string{"payments", "outage", "certs"},
		CreatedAt:     now,
		UpdatedAt:     now,
		Vector:        []float32{0.1, 0.2, 0.3},
		LexicalWeight: 0.85,
	}

	decoded, err := UnmarshalRecord(MarshalRecord(record))
	require.NoError(t, err)

	assert.Equal(t, record.Id, decoded.Id)
	assert.Equal(t, record.Category, decoded.Category)
	assert.Equal(t, record.Title, decoded.Title)
	assert.Equal(t, record.Body, decoded.Body)
	assert.Equal(t, record.Tags, decoded.Tags)
	assert.True(t, record.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, record.UpdatedAt.Equal(decoded.UpdatedAt))
	assert.True(t, decoded.DeletedAt.IsZero(), "zero delete time must survive the round trip")
	assert.Equal(t, record.Vector, decoded.Vector)
	assert.Equal(t, record.LexicalWeight, decoded.LexicalWeight)
}

func TestMarshalUnmarshalProfile(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	profile := &core.Profile{
		Name:                "incident-triage",
		LexicalWeight:       1.0,
		VectorWeight:        0.7,
		DampeningK:          60,
		RecencyWeight:       0.5,
		RecencyHalfLife:     72 * time.Hour,
		CategoryBoosts:      map[string]float64{core.CategoryIncident: 2.0},
		CandidatesPerSource: 50,
		UpdatedAt:           now,
	}

	decoded, err := UnmarshalProfile(MarshalProfile(profile))
	require.NoError(t, err)

	assert.Equal(t, profile.Name, decoded.Name)
	assert.Equal(t, profile.VectorWeight, decoded.VectorWeight)
	assert.Equal(t, profile.RecencyHalfLife, decoded.RecencyHalfLife)
	assert.Equal(t, profile.CategoryBoosts, decoded.CategoryBoosts)
	assert.Equal(t, profile.CandidatesPerSource, decoded.CandidatesPerSource)
	assert.True(t, profile.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalInvalidData(t *testing.T) {
	_, err := UnmarshalRecord([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalProfile([]byte{0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalVector([]byte{0xFF})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
