package check

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kadirpekel/minion/actionnode"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
)

const checkMinionFormat = `SCORE: <a number from 0.0 to 1.0>
FEEDBACK: <one or two sentences explaining the score>`

var scoreLine = regexp.MustCompile(`(?im)^\s*score\s*:\s*([0-9]*\.?[0-9]+)\s*$`)
var feedbackLine = regexp.MustCompile(`(?is)feedback\s*:\s*(.+)`)

// CheckMinion is an LLM critic scoring a candidate against an explicit
// rubric. It supports multimodal queries: the rubric and candidate are
// folded into the Input's SystemPrompt/Query, which CanonicalizeQuery
// already handles uniformly for text or []QueryPart content.
type CheckMinion struct {
	Node   *actionnode.Node
	Rubric string
}

func NewCheckMinion(node *actionnode.Node, rubric string) *CheckMinion {
	return &CheckMinion{Node: node, Rubric: rubric}
}

func (c *CheckMinion) Check(ctx context.Context, input schema.Input) (float64, string, error) {
	review := input.Clone()
	review.SystemPrompt = fmt.Sprintf(
		"You are grading a candidate answer against this rubric:\n%s\n\nRespond in exactly this format:\n%s",
		c.Rubric, checkMinionFormat)
	review.Query = append(
		append([]schema.QueryPart{{Text: "Query:"}}, queryParts(input.Query)...),
		schema.QueryPart{Text: fmt.Sprintf("\n\nCandidate answer:\n%s", input.Answer)},
	)
	review.Stream = false

	turn, err := c.Node.Run(ctx, review, nil, llms.ToolChoiceNone, nil)
	if err != nil {
		return 0, "", fmt.Errorf("check_minion: %w", err)
	}

	text := ""
	for _, m := range turn.Messages {
		if m.Role == schema.RoleAssistant {
			text = m.Text
			break
		}
	}
	return parseScoreAndFeedback(text)
}

// queryParts normalizes an Input.Query (string, []QueryPart, []Message,
// or Message — the union schema.CanonicalizeQuery accepts) into an
// ordered []QueryPart, preserving any image content instead of
// collapsing it through fmt's %v, so a multimodal original query
// survives into the critic's own turn.
func queryParts(query any) []schema.QueryPart {
	switch v := query.(type) {
	case string:
		return []schema.QueryPart{{Text: v}}
	case []schema.QueryPart:
		return v
	case []schema.Message:
		parts := make([]schema.QueryPart, 0, len(v))
		for _, m := range v {
			parts = append(parts, messagePartsOf(m)...)
		}
		return parts
	case schema.Message:
		return messagePartsOf(v)
	default:
		return []schema.QueryPart{{Text: fmt.Sprintf("%v", v)}}
	}
}

// messagePartsOf flattens one canonical Message into QueryParts,
// preferring its Parts (multimodal) over its scalar Text.
func messagePartsOf(m schema.Message) []schema.QueryPart {
	if len(m.Parts) == 0 {
		return []schema.QueryPart{{Text: m.Text}}
	}
	out := make([]schema.QueryPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Kind == schema.PartImage {
			out = append(out, schema.QueryPart{Image: p.Image})
		} else {
			out = append(out, schema.QueryPart{Text: p.Text})
		}
	}
	return out
}

func parseScoreAndFeedback(text string) (float64, string, error) {
	m := scoreLine.FindStringSubmatch(text)
	if m == nil {
		return 0, text, fmt.Errorf("check_minion: no SCORE line found in critic response")
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, text, fmt.Errorf("check_minion: invalid score %q: %w", m[1], err)
	}
	feedback := ""
	if fm := feedbackLine.FindStringSubmatch(text); fm != nil {
		feedback = strings.TrimSpace(fm[1])
	}
	return clamp01(score), feedback, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
