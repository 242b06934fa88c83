package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lorekeep/lorekeep/errors"
	itesting "github.com/lorekeep/lorekeep/internal/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(itesting.CreateTestStore(t), zaptest.NewLogger(t).Sugar())
}

func TestActivateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Activate("aria-1", "entity", "protagonist")
	require.NoError(t, err)
	second, err := s.Activate("aria-1", "entity", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "protagonist", second.Characteristic)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestActivateUpdatesCharacteristic(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Activate("aria-1", "entity", "protagonist")
	require.NoError(t, err)
	updated, err := s.Activate("aria-1", "entity", "antagonist")
	require.NoError(t, err)
	assert.Equal(t, "antagonist", updated.Characteristic)
}

func TestSameObjectIDDifferentKinds(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Activate("42", "entity", "")
	require.NoError(t, err)
	b, err := s.Activate("42", "folder", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateRelation(t *testing.T) {
	s := newTestStore(t)

	aria, err := s.Activate("aria-1", "entity", "")
	require.NoError(t, err)
	bren, err := s.Activate("bren-2", "entity", "")
	require.NoError(t, err)

	rel, err := s.CreateRelation(aria.ID, bren.ID, "mentor-of", "since the war", json.RawMessage(`{"strength":3}`))
	require.NoError(t, err)
	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, "entity", rel.FromKind)
	assert.Equal(t, "entity", rel.ToKind)
	assert.Equal(t, "mentor-of", rel.Type)
	assert.JSONEq(t, `{"strength":3}`, string(rel.Metadata))

	_, err = s.CreateRelation(aria.ID, 99, "mentor-of", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNodeNotFound))
}

func TestRelationMetadataRoundTrips(t *testing.T) {
	s := newTestStore(t)

	aria, err := s.Activate("aria-1", "entity", "")
	require.NoError(t, err)
	bren, err := s.Activate("bren-2", "entity", "")
	require.NoError(t, err)

	// An explicit empty object comes back as stored, not collapsed to nil
	rel, err := s.CreateRelation(aria.ID, bren.ID, "ally-of", "", json.RawMessage(`{}`))
	require.NoError(t, err)
	got, err := s.GetRelation(rel.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.Metadata))

	// Omitted metadata defaults to the empty object on read too
	rel2, err := s.CreateRelation(bren.ID, aria.ID, "rival-of", "", nil)
	require.NoError(t, err)
	got2, err := s.GetRelation(rel2.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got2.Metadata))
}

func TestDeleteRelation(t *testing.T) {
	s := newTestStore(t)

	aria, err := s.Activate("aria-1", "entity", "")
	require.NoError(t, err)
	bren, err := s.Activate("bren-2", "entity", "")
	require.NoError(t, err)
	rel, err := s.CreateRelation(aria.ID, bren.ID, "ally-of", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRelation(rel.ID))

	err = s.DeleteRelation(rel.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRelationNotFound))
}

func TestRelationsForListsBothDirections(t *testing.T) {
	s := newTestStore(t)

	aria, err := s.Activate("aria-1", "entity", "")
	require.NoError(t, err)
	bren, err := s.Activate("bren-2", "entity", "")
	require.NoError(t, err)
	cira, err := s.Activate("cira-3", "entity", "")
	require.NoError(t, err)

	_, err = s.CreateRelation(aria.ID, bren.ID, "mentor-of", "", nil)
	require.NoError(t, err)
	_, err = s.CreateRelation(cira.ID, aria.ID, "rival-of", "", nil)
	require.NoError(t, err)
	_, err = s.CreateRelation(bren.ID, cira.ID, "ally-of", "", nil)
	require.NoError(t, err)

	rels, err := s.RelationsFor(aria.ID)
	require.NoError(t, err)
	require.Len(t, rels, 2)
}

func TestAutoLinkByCharacteristic(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Activate("aria-1", "entity", "elfo")
	require.NoError(t, err)
	b, err := s.Activate("bren-2", "entity", "elfo")
	require.NoError(t, err)
	_, err = s.Activate("cira-3", "entity", "humano")
	require.NoError(t, err)
	d, err := s.Activate("dain-4", "entity", "elfo")
	require.NoError(t, err)

	created, err := s.AutoLinkByCharacteristic("elfo", "same-race")
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	// Repeated runs create nothing new
	created, err = s.AutoLinkByCharacteristic("elfo", "same-race")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// A manually created reverse edge also counts as already-linked
	require.NoError(t, s.DeleteRelationsBetween(a.ID, b.ID))
	_, err = s.CreateRelation(b.ID, a.ID, "same-race", "", nil)
	require.NoError(t, err)
	created, err = s.AutoLinkByCharacteristic("elfo", "same-race")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// Nodes never link to themselves
	rels, err := s.RelationsFor(d.ID)
	require.NoError(t, err)
	for _, r := range rels {
		assert.NotEqual(t, r.FromNodeID, r.ToNodeID)
	}
}

func TestAutoLinkNoMatches(t *testing.T) {
	s := newTestStore(t)

	created, err := s.AutoLinkByCharacteristic("dragones", "same-race")
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
