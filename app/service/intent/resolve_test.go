package intent

import (
	"testing"

	"novachat/app/client/answer"
	"novachat/app/service/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	cases := map[string]Action{
		"Compare AWS and GCP pricing": ActionCompare,
		"  compare two things":        ActionCompare,
		"LATEST AI model releases":    ActionLatest,
		"Plan B is risky":             ActionPlan,
		"Explainable AI":              ActionExplain,
		"What is Go?":                 ActionNone,
		"":                            ActionNone,
	}

	for text, want := range cases {
		assert.Equal(t, want, Infer(text, ActionNone), text)
	}
}

func TestInferExplicitWins(t *testing.T) {
	assert.Equal(t, ActionLatest, Infer("Compare these", ActionLatest))
}

func TestModeFor(t *testing.T) {
	for _, entry := range Catalog() {
		assert.Equal(t, answer.ModeChat, ModeFor(entry.Key, false), entry.Key)
	}
	assert.Equal(t, answer.ModeChat, ModeFor(ActionNone, false))

	assert.Equal(t, answer.ModeWeb, ModeFor(ActionResearch, true))
	assert.Equal(t, answer.ModeWeb, ModeFor(ActionLatest, true))
	assert.Equal(t, answer.ModeAuto, ModeFor(ActionCompare, true))
	assert.Equal(t, answer.ModeAuto, ModeFor(ActionNone, true))
}

func TestResolveCompareWithoutWeb(t *testing.T) {
	r := Resolve("Compare AWS and GCP pricing", ActionNone, false)

	assert.Equal(t, ActionCompare, r.Action)
	assert.Equal(t, answer.ModeChat, r.Mode)
	assert.False(t, r.UseWeb)
	assert.Equal(t,
		"Compare key options with clear pros, cons, and tradeoffs: Compare AWS and GCP pricing",
		r.Question)
}

func TestResolveLatestWithWeb(t *testing.T) {
	r := Resolve("AI model releases", ActionLatest, true)

	assert.Equal(t, ActionLatest, r.Action)
	assert.Equal(t, answer.ModeWeb, r.Mode)
	assert.True(t, r.UseWeb)
	assert.Empty(t, r.Prefix)
	assert.Equal(t, "AI model releases", r.Question)
}

func TestResolveNoAction(t *testing.T) {
	r := Resolve("  hello there  ", ActionNone, true)

	assert.Equal(t, ActionNone, r.Action)
	assert.Equal(t, answer.ModeAuto, r.Mode)
	assert.Equal(t, "hello there", r.Question)
}

func TestCatalogPrefixes(t *testing.T) {
	prefixes := map[Action]string{}
	for _, entry := range Catalog() {
		prefixes[entry.Key] = entry.Prefix
		assert.Len(t, entry.Suggestions, 4, entry.Key)
	}

	require.Len(t, prefixes, 8)
	assert.Equal(t, map[Action]string{
		ActionResearch:   "",
		ActionCompare:    "Compare key options with clear pros, cons, and tradeoffs:",
		ActionLatest:     "",
		ActionSummarize:  "Summarize this clearly and concisely:",
		ActionExplain:    "Explain this in simple terms with practical examples:",
		ActionBrainstorm: "Brainstorm diverse, creative ideas for:",
		ActionValidate:   "Validate this and identify risks, assumptions, and improvements:",
		ActionPlan:       "Create a step-by-step plan with milestones for:",
	}, prefixes)
}

func TestCatalogIsCopy(t *testing.T) {
	c := Catalog()
	c[0].Suggestions[0] = "changed"

	assert.NotEqual(t, "changed", Catalog()[0].Suggestions[0])
}

func TestBuildRequest(t *testing.T) {
	history := []thread.Message{
		thread.NewMessage(thread.RoleUser, "first", nil),
		thread.NewMessage(thread.RoleAssistant, "reply", nil),
	}

	req := BuildRequest(" Plan my week ", ActionPlan, false, history)

	assert.Equal(t, "Create a step-by-step plan with milestones for: Plan my week", req.Question)
	assert.Equal(t, answer.ModeChat, req.Mode)
	assert.False(t, req.UseWeb)
	assert.Equal(t, []answer.HistoryMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
	}, req.Messages)
}

func TestBuildRequestDoesNotReinfer(t *testing.T) {
	req := BuildRequest("Compare apples", ActionNone, false, nil)

	assert.Equal(t, "Compare apples", req.Question)
	assert.Empty(t, req.Messages)
}
