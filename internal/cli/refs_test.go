package cli

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func TestMatch(t *testing.T) {
	n := types.NewNovel("refs")
	ann := &types.Character{ID: uuid.MustParse("aaaa1111-0000-0000-0000-000000000000"), Name: "Ann"}
	anna := &types.Character{ID: uuid.MustParse("aaaa2222-0000-0000-0000-000000000000"), Name: "Anna"}
	bob := &types.Character{ID: uuid.MustParse("bbbb1111-0000-0000-0000-000000000000"), Name: "Bob"}
	n.Characters = []*types.Character{ann, anna, bob}

	tests := []struct {
		ref     string
		want    *types.Character
		wantErr error
	}{
		{ref: ann.ID.String(), want: ann},
		{ref: "ANNA", want: anna},
		{ref: "bbbb", want: bob},
		{ref: "aaaa2", want: anna},
		{ref: "aaaa", wantErr: types.ErrInvalidRef},
		{ref: "carol", wantErr: types.ErrNotFound},
		{ref: uuid.NewString(), wantErr: types.ErrNotFound},
		{ref: "  ", wantErr: types.ErrInvalidRef},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := findCharacter(n, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestFindCharactersSkipsBlanks(t *testing.T) {
	n := types.NewNovel("refs")
	a, b := types.NewCharacter("A"), types.NewCharacter("B")
	n.Characters = []*types.Character{a, b}

	ids, err := findCharacters(n, []string{"b", "", "a"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, ids)

	id, err := optionalCharacter(n, "")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func TestAgendaFor(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	sc := types.NewScene("s")

	a := agendaFor(sc, owner)
	assert.Same(t, sc.Agendas[0], a, "unassigned agenda is claimed")
	assert.Same(t, a, agendaFor(sc, owner))

	b := agendaFor(sc, other)
	assert.Len(t, sc.Agendas, 2)
	assert.Equal(t, other, b.CharacterID)
}
