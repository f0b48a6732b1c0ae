package tokendraft

import (
	"testing"

	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bankOf(n int) models.TokenSet {
	return models.TokenSet{White: n, Blue: n, Green: n, Red: n, Black: n, Gold: n}
}

func TestAdjust_ClampsToBank(t *testing.T) {
	e := NewEngine()
	bank := models.TokenSet{White: 1}

	d, err := e.Adjust(models.ColorWhite, 2, bank, models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, d[models.ColorWhite])

	d, err = e.Adjust(models.ColorWhite, 1, bank, models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, d[models.ColorWhite])
}

func TestAdjust_ClampsToHoldingsAndCap(t *testing.T) {
	e := NewEngine()

	d, err := e.Adjust(models.ColorRed, -5, bankOf(4), models.TokenSet{Red: 1})
	require.NoError(t, err)
	assert.Equal(t, -1, d[models.ColorRed])

	d, err = e.Adjust(models.ColorBlue, -5, bankOf(4), models.TokenSet{Blue: 7})
	require.NoError(t, err)
	assert.Equal(t, -2, d[models.ColorBlue])

	d, err = e.Adjust(models.ColorGreen, 9, bankOf(7), models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 2, d[models.ColorGreen])
}

func TestAdjust_ReclampsWhenBankShrinks(t *testing.T) {
	e := NewEngine()
	_, err := e.Adjust(models.ColorBlack, 2, bankOf(4), models.TokenSet{})
	require.NoError(t, err)

	// The bank dropped to one black token since the last edit.
	d, err := e.Adjust(models.ColorBlack, 0, models.TokenSet{Black: 1}, models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, d[models.ColorBlack])
}

func TestAdjust_AlwaysWithinBounds(t *testing.T) {
	e := NewEngine()
	deltas := []int{3, -1, -4, 2, 1, 1, -2, 5, -7}
	banks := []int{0, 1, 2, 4, 1, 0, 3, 2, 1}
	owned := []int{0, 3, 1, 0, 2, 5, 1, 0, 4}

	for i := range deltas {
		bank := models.TokenSet{Green: banks[i]}
		hold := models.TokenSet{Green: owned[i]}
		d, err := e.Adjust(models.ColorGreen, deltas[i], bank, hold)
		require.NoError(t, err)

		lo, hi := Bounds(models.ColorGreen, bank, hold)
		assert.GreaterOrEqual(t, d[models.ColorGreen], lo, "step %d", i)
		assert.LessOrEqual(t, d[models.ColorGreen], hi, "step %d", i)
	}
}

func TestAdjust_UnknownColor(t *testing.T) {
	e := NewEngine()
	_, err := e.Adjust(models.Color("purple"), 1, bankOf(4), models.TokenSet{})
	require.ErrorIs(t, err, ErrUnknownColor)
	assert.True(t, e.Draft().IsZero())
}

func TestAdjust_NormalizesColorName(t *testing.T) {
	e := NewEngine()
	d, err := e.Adjust(models.Color("White"), 1, bankOf(4), models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, d[models.ColorWhite])
	assert.NotContains(t, d, models.Color("White"))
	assert.Len(t, d, len(models.DraftColors))

	d, err = e.Adjust(models.Color(" RED "), 2, bankOf(4), models.TokenSet{})
	require.NoError(t, err)
	assert.Equal(t, 2, d[models.ColorRed])
	assert.Len(t, d, len(models.DraftColors))

	action, _, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, models.ActionTakeTokens, action.Type)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		draft   Draft
		want    models.Action
		wantErr error
	}{
		{
			name:    "all zero",
			draft:   Zero(),
			wantErr: ErrEmptyDraft,
		},
		{
			name:  "take expands by magnitude in draft order",
			draft: Draft{models.ColorWhite: 1, models.ColorBlack: 2},
			want: models.Action{
				Type:    models.ActionTakeTokens,
				Payload: &models.ActionPayload{Colors: []models.Color{models.ColorBlack, models.ColorBlack, models.ColorWhite}},
			},
		},
		{
			name:    "take with gold is rejected",
			draft:   Draft{models.ColorGold: 1, models.ColorRed: 1},
			wantErr: ErrGoldIntake,
		},
		{
			name:  "discard expands by magnitude",
			draft: Draft{models.ColorRed: -2, models.ColorGold: -1},
			want: models.Action{
				Type:    models.ActionDiscardTokens,
				Payload: &models.ActionPayload{Colors: []models.Color{models.ColorRed, models.ColorRed, models.ColorGold}},
			},
		},
		{
			name:  "mixed becomes one adjust with the signed map",
			draft: Draft{models.ColorBlue: 2, models.ColorGreen: -1, models.ColorWhite: 0},
			want: models.Action{
				Type:    models.ActionAdjustTokens,
				Payload: &models.ActionPayload{Adjust: map[models.Color]int{models.ColorBlue: 2, models.ColorGreen: -1}},
			},
		},
		{
			name:    "mixed with gold intake is rejected",
			draft:   Draft{models.ColorGold: 1, models.ColorGreen: -1},
			wantErr: ErrGoldIntake,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.draft)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSubmit_LeavesDraftIntact(t *testing.T) {
	e := NewEngine()
	_, _, err := e.Submit()
	require.ErrorIs(t, err, ErrEmptyDraft)
	assert.Equal(t, Zero(), e.Draft())

	_, err = e.Adjust(models.ColorBlue, 1, bankOf(4), models.TokenSet{})
	require.NoError(t, err)
	action, submitted, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, models.ActionTakeTokens, action.Type)
	assert.Equal(t, 1, submitted[models.ColorBlue])
	assert.Equal(t, 1, e.Draft()[models.ColorBlue])

	assert.True(t, e.Reset().IsZero())
	assert.True(t, e.Draft().IsZero())
}

func TestResetIfUnchanged(t *testing.T) {
	e := NewEngine()
	_, err := e.Adjust(models.ColorRed, 1, bankOf(4), models.TokenSet{})
	require.NoError(t, err)
	_, submitted, err := e.Submit()
	require.NoError(t, err)

	_, err = e.Adjust(models.ColorGreen, 1, bankOf(4), models.TokenSet{})
	require.NoError(t, err)
	assert.False(t, e.ResetIfUnchanged(submitted))
	assert.Equal(t, 1, e.Draft()[models.ColorRed])
	assert.Equal(t, 1, e.Draft()[models.ColorGreen])

	_, submitted, err = e.Submit()
	require.NoError(t, err)
	assert.True(t, e.ResetIfUnchanged(submitted))
	assert.True(t, e.Draft().IsZero())
}
