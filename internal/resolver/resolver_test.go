package resolver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []Candidate {
	return []Candidate{
		{ID: uuid.New(), Name: "Caneta Azul", Keys: []string{"CAN-AZ-01"}},
		{ID: uuid.New(), Name: "Caneta Preta", Keys: []string{"CAN-PT-01"}},
		{ID: uuid.New(), Name: "Caderno Executivo"},
		{ID: uuid.New(), Name: "Camiseta Algodão"},
		{ID: uuid.New(), Name: "Botão Metálico"},
		{ID: uuid.New(), Name: "Mochila X"},
	}
}

func TestResolve_Substring(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "mochila", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[5].ID, m.ID)
	assert.Equal(t, TierSubstring, m.Tier)
	assert.Equal(t, 1.0, m.Score)
	assert.Empty(t, m.Note)
}

func TestResolve_SubstringFirstMatchWins(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "caneta", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[0].ID, m.ID)
	assert.Empty(t, m.Note)
}

func TestResolve_Keys(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "can-pt", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[1].ID, m.ID)
	assert.Equal(t, TierSubstring, m.Tier)
}

func TestResolve_AccentInsensitive(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "ALGODAO", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[3].ID, m.ID)

	m, err = Resolve(c, "metalico", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[4].ID, m.ID)
}

func TestResolve_Singular(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "cadernos", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[2].ID, m.ID)
	assert.Equal(t, TierSingular, m.Tier)
	assert.Equal(t, "interpreted 'cadernos' as 'Caderno Executivo'", m.Note)

	m, err = Resolve(c, "botões", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[4].ID, m.ID)
	assert.Equal(t, TierSingular, m.Tier)
}

func TestResolve_Similarity(t *testing.T) {
	c := catalog()

	m, err := Resolve(c, "Cadrno Executivo", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[2].ID, m.ID)
	assert.Equal(t, TierSimilarity, m.Tier)
	assert.InDelta(t, 16.0/17.0, m.Score, 1e-9)
	assert.Contains(t, m.Note, "interpreted 'Cadrno Executivo' as 'Caderno Executivo'")
	assert.Contains(t, m.Note, "94% similar")
}

func TestResolve_BelowThreshold(t *testing.T) {
	_, err := Resolve(catalog(), "Produto Totalmente Inexistente", 0.5)
	require.ErrorIs(t, err, ErrNoMatch)
	assert.Contains(t, err.Error(), "Produto Totalmente Inexistente")
}

func TestResolve_ThresholdIsInclusive(t *testing.T) {
	c := []Candidate{{ID: uuid.New(), Name: "abcd"}}

	m, err := Resolve(c, "abxy", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Score)

	_, err = Resolve(c, "abxy", 0.51)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolve_SimilarityTieKeepsEarlier(t *testing.T) {
	c := []Candidate{
		{ID: uuid.New(), Name: "lapis"},
		{ID: uuid.New(), Name: "lapiz"},
	}

	m, err := Resolve(c, "lapix", 0.5)
	require.NoError(t, err)
	assert.Equal(t, c[0].ID, m.ID)
}

func TestResolve_EmptyReference(t *testing.T) {
	_, err := Resolve(catalog(), "   ", 0.5)
	assert.ErrorIs(t, err, ErrEmptyReference)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	_, err := Resolve(nil, "caneta", 0.5)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolve_Deterministic(t *testing.T) {
	c := catalog()
	for _, ref := range []string{"caneta", "cadernos", "Cadrno Executivo"} {
		first, err := Resolve(c, ref, 0.5)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Resolve(c, ref, 0.5)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestSingularForms(t *testing.T) {
	assert.Equal(t, []string{"caderno"}, singularForms("cadernos"))
	assert.Equal(t, []string{"botõe", "botõ", "botão"}, singularForms("botões"))
	assert.Equal(t, []string{"iten", "item"}, singularForms("itens"))
	assert.Empty(t, singularForms("s"))
	assert.Empty(t, singularForms("mochila"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "camiseta algodao", Fold("  Camiseta   ALGODÃO "))
	assert.Equal(t, "", Fold(""))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 0.75, Similarity("abcd", "abce"), 1e-9)
}
