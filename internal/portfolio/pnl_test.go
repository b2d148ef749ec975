package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signalbot/internal/model"
)

func TestProfitPct(t *testing.T) {
	tests := []struct {
		name        string
		dir         model.Direction
		entry, exit float64
		want        float64
	}{
		{"long stop", model.DirectionUp, 100, 98.4, -1.6},
		{"long gain", model.DirectionUp, 100, 101.25, 1.25},
		{"short gain", model.DirectionDown, 100, 98.4, 1.6},
		{"short loss", model.DirectionDown, 100, 101.5, -1.5},
		{"break even", model.DirectionUp, 100, 100, 0},
		{"btc", model.DirectionUp, 64000, 64960, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfitPct(tt.dir, tt.entry, tt.exit))
		})
	}
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, model.OutcomeWin, OutcomeFor(0.01))
	assert.Equal(t, model.OutcomeLoss, OutcomeFor(0))
	assert.Equal(t, model.OutcomeLoss, OutcomeFor(-1.6))
}

func TestSummarize(t *testing.T) {
	recs := []model.PositionRecord{
		{Action: model.ActionEntry, Direction: model.DirectionUp},
		{Action: model.ActionExit, Outcome: model.OutcomeWin, ProfitPct: 2.1},
		{Action: model.ActionEntry, Direction: model.DirectionDown},
		{Action: model.ActionExit, Outcome: model.OutcomeLoss, ProfitPct: -1.5},
		{Action: model.ActionExit, Outcome: model.OutcomeLoss, ProfitPct: 0},
	}
	s := Summarize(recs)
	assert.Equal(t, 3, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 0.6, s.TotalPct)
	assert.Equal(t, 33.33, s.WinRatePct)

	assert.Equal(t, Summary{}, Summarize(nil))
}
