package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mmeshcher/lot-auction/internal/model"
)

type collector struct {
	events []model.Event
}

func (c *collector) Publish(ev model.Event) {
	c.events = append(c.events, ev)
}

func TestMulti_PublishesToAll(t *testing.T) {
	a, b := &collector{}, &collector{}
	m := Multi{a, nil, b}

	ev := model.LotUnsold{Lot: model.Lot{ID: "1"}}
	m.Publish(ev)

	assert.Equal(t, []model.Event{ev}, a.events)
	assert.Equal(t, []model.Event{ev}, b.events)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSink(zap.New(core))

	s.Publish(model.LotSold{
		Lot:    model.Lot{ID: "1", LotSpec: model.LotSpec{Name: "Virat Kohli"}},
		Amount: 2_200_000,
		Bidder: model.BidderIdentity{ID: "b1", Name: "Owner", Team: "Mumbai XI"},
	})
	s.Publish(model.BidRejected{Bidder: model.BidderIdentity{Name: "Owner"}, Reason: "insufficient_budget"})

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "lot sold", entries[0].Message)
	assert.Equal(t, "Mumbai XI", entries[0].ContextMap()["bidder"])
	assert.Equal(t, int64(2_200_000), entries[0].ContextMap()["amount"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "insufficient_budget", entries[1].ContextMap()["reason"])
}
