package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleView(title string) *models.ViewModel {
	return &models.ViewModel{
		Title:    title,
		Language: "english",
		Staves: []models.Staff{{
			MusicContainerBase: models.MusicContainerBase{
				Clef: "treble",
				Notes: []models.Note{
					{Pitch: "c", Duration: "4", Octave: 4, NoteType: models.NoteChord, ChordNotes: []models.ChordTone{{Pitch: "e", Octave: 4}}},
					{Pitch: "r", Duration: "4", NoteType: models.NoteRest},
				},
			},
			Voices:   []models.Voice{},
			Measures: []models.Measure{{Notes: []int{0, 1}}},
		}},
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Put(ctx, Entry{Name: "etude.ly", Source: `{ <c' e'>4 r }`, View: sampleView("Etude")})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "etude.ly", got.Name)
	assert.Equal(t, `{ <c' e'>4 r }`, got.Source)
	assert.False(t, got.CreatedAt.IsZero())

	require.NotNil(t, got.View)
	assert.Equal(t, "Etude", got.View.Title)
	require.Len(t, got.View.Staves, 1)
	staff := got.View.Staves[0]
	assert.Equal(t, "treble", staff.Clef)
	assert.Equal(t, []models.ChordTone{{Pitch: "e", Octave: 4}}, staff.Notes[0].ChordNotes)
	assert.Equal(t, models.NoteRest, staff.Notes[1].NoteType)
	assert.Equal(t, []int{0, 1}, staff.Measures[0].Notes)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name  string
		title string
		at    time.Time
	}{
		{"second.ly", "Second", base.Add(time.Minute)},
		{"first.ly", "First", base},
		{"third.ly", "", base.Add(2 * time.Minute)},
	}

	ids := map[string]string{}
	for _, tt := range tests {
		id, err := s.Put(ctx, Entry{Name: tt.name, CreatedAt: tt.at, View: sampleView(tt.title)})
		require.NoError(t, err)
		ids[tt.name] = id
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first.ly", list[0].Name)
	assert.Equal(t, "First", list[0].Title)
	assert.Equal(t, "second.ly", list[1].Name)
	assert.Equal(t, "third.ly", list[2].Name)
	assert.Empty(t, list[2].Title)

	require.NoError(t, s.Delete(ctx, ids["second.ly"]))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.Get(ctx, ids["second.ly"])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Resolve(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Put(ctx, Entry{ID: "abc123", Name: "a"})
	require.NoError(t, err)
	_, err = s.Put(ctx, Entry{ID: "abd456", Name: "b"})
	require.NoError(t, err)

	tests := []struct {
		prefix  string
		want    string
		wantErr bool
	}{
		{"abc", "abc123", false},
		{"abd456", "abd456", false},
		{"ab", "", true},
		{"zzz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := s.Resolve(ctx, tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
