package intent

type Action string

const (
	ActionNone       Action = ""
	ActionResearch   Action = "research"
	ActionCompare    Action = "compare"
	ActionLatest     Action = "latest"
	ActionSummarize  Action = "summarize"
	ActionExplain    Action = "explain"
	ActionBrainstorm Action = "brainstorm"
	ActionValidate   Action = "validate"
	ActionPlan       Action = "plan"
)

type CatalogEntry struct {
	Key         Action   `json:"key"`
	Label       string   `json:"label"`
	Prefix      string   `json:"prefix,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// catalog order matters: inference takes the first label that prefixes the text.
var catalog = []CatalogEntry{
	{
		Key:   ActionResearch,
		Label: "Research",
		Suggestions: []string{
			"Why is Nvidia growing so rapidly?",
			"Research the latest AI developments",
			"What are the key trends in robotics?",
			"What are the latest breakthroughs in renewable energy?",
		},
	},
	{
		Key:    ActionCompare,
		Label:  "Compare",
		Prefix: "Compare key options with clear pros, cons, and tradeoffs:",
		Suggestions: []string{
			"Compare ChatGPT, Claude, and Gemini for technical writing",
			"Compare SQL vs NoSQL for analytics-heavy products",
			"Compare hiring in-house vs outsourcing for MVP delivery",
			"Compare Tesla and BYD strategies in EV expansion",
		},
	},
	{
		Key:   ActionLatest,
		Label: "Latest",
		Suggestions: []string{
			"Latest news today",
			"What happened in tech this week?",
			"Recent breakthroughs in medicine",
			"Latest AI model releases",
		},
	},
	{
		Key:    ActionSummarize,
		Label:  "Summarize",
		Prefix: "Summarize this clearly and concisely:",
		Suggestions: []string{
			"Summarize the key differences between supervised and unsupervised learning",
			"Summarize this quarter's product priorities into 5 bullets",
			"Summarize the causes and impact of inflation",
			"Summarize this article in plain English for a non-technical audience",
		},
	},
	{
		Key:    ActionExplain,
		Label:  "Explain",
		Prefix: "Explain this in simple terms with practical examples:",
		Suggestions: []string{
			"Explain blockchain like I am 12 years old",
			"Explain how recommendation systems work in streaming apps",
			"Explain the difference between GPU and CPU with examples",
			"Explain microservices vs monolith architecture",
		},
	},
	{
		Key:    ActionBrainstorm,
		Label:  "Brainstorm",
		Prefix: "Brainstorm diverse, creative ideas for:",
		Suggestions: []string{
			"Brainstorm 10 startup ideas in climate tech",
			"Generate creative marketing angles for an AI product",
			"Brainstorm product names for a premium research assistant",
			"Give me unconventional growth ideas for a developer tool",
		},
	},
	{
		Key:    ActionValidate,
		Label:  "Validate",
		Prefix: "Validate this and identify risks, assumptions, and improvements:",
		Suggestions: []string{
			"Validate my SaaS pricing model assumptions",
			"Validate whether this GTM strategy is realistic",
			"Validate this startup idea and identify key risks",
			"Validate if this roadmap can be delivered in 90 days",
		},
	},
	{
		Key:    ActionPlan,
		Label:  "Plan",
		Prefix: "Create a step-by-step plan with milestones for:",
		Suggestions: []string{
			"Plan a 30-60-90 day AI product launch roadmap",
			"Plan a full-stack learning path for the next 4 months",
			"Plan a weekly content strategy for a developer brand",
			"Plan migration from a monolith to microservices",
		},
	},
}

// Catalog returns a copy of the action catalog in display order.
func Catalog() []CatalogEntry {
	result := make([]CatalogEntry, len(catalog))
	for i, entry := range catalog {
		result[i] = entry
		result[i].Suggestions = append([]string(nil), entry.Suggestions...)
	}

	return result
}

func Lookup(key Action) (CatalogEntry, bool) {
	for _, entry := range catalog {
		if entry.Key == key {
			return entry, true
		}
	}

	return CatalogEntry{}, false
}
