package copilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainStickyIsHigh(t *testing.T) {
	reg := routingRegistry(t)
	sc := SelectionContext{StickyKind: "mongo", UserText: "anything at all"}

	exp := Explain(reg, sc, Select(reg, sc))
	assert.Equal(t, Kind("mongo"), exp.Kind)
	assert.Equal(t, ConfidenceHigh, exp.Confidence)
}

func TestExplainContentSignatureIsHigh(t *testing.T) {
	reg := routingRegistry(t)
	sc := SelectionContext{
		AttachedContents: []string{"db.orders.find({status:'open'})"},
	}

	chosen := Select(reg, sc)
	assert.Equal(t, Kind("mongo"), chosen)

	exp := Explain(reg, sc, chosen)
	assert.Equal(t, ConfidenceHigh, exp.Confidence)
	assert.Contains(t, exp.Reason, "content signature")
}

func TestExplainKeywordIsMedium(t *testing.T) {
	reg := routingRegistry(t)
	sc := SelectionContext{UserText: "show me the bigquery datasets"}

	chosen := Select(reg, sc)
	assert.Equal(t, Kind("bigquery"), chosen)

	exp := Explain(reg, sc, chosen)
	assert.Equal(t, ConfidenceMedium, exp.Confidence)
}

func TestExplainNarrowingAndDefaultAreLow(t *testing.T) {
	reg := routingRegistry(t)

	narrowed := SelectionContext{WorkspaceCapabilities: []Kind{"postgres"}}
	exp := Explain(reg, narrowed, Select(reg, narrowed))
	assert.Equal(t, Kind("postgres"), exp.Kind)
	assert.Equal(t, ConfidenceLow, exp.Confidence)

	empty := SelectionContext{}
	exp = Explain(reg, empty, Select(reg, empty))
	assert.Equal(t, KindTriage, exp.Kind)
	assert.Equal(t, ConfidenceLow, exp.Confidence)
}

// Explain re-runs the signal tests rather than trusting Select's path, so it
// grades honestly even for a kind the caller chose by other means.
func TestExplainIndependentOfSelect(t *testing.T) {
	reg := routingRegistry(t)
	sc := SelectionContext{UserText: "query the users collection in mongodb"}

	exp := Explain(reg, sc, "postgres")
	assert.Equal(t, Kind("postgres"), exp.Kind)
	assert.Equal(t, ConfidenceLow, exp.Confidence)
}
