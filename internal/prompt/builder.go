package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quizforge/internal/domain"
)

// Schema is the literal output contract embedded in every prompt.
const Schema = `{"questions":[{"question":"...","options":["...","...","...","..."],"answer":"..."}]}`

const (
	// SystemPrompt is sent with text-sourced prompts.
	SystemPrompt = "You are an AI quiz generator. Respond ONLY with valid JSON."
	// VisionSystemPrompt is sent when images go to the model directly.
	VisionSystemPrompt = "You are an AI quiz generator for students. Look at the provided image(s) and produce ONLY valid JSON. Do not include commentary, markdown, or code fences."
)

const formatRules = "Format rules:\n" +
	"1) Return STRICT JSON only (no markdown, backticks, or commentary).\n" +
	"2) JSON schema: " + Schema + ".\n" +
	"3) Exactly 4 options per item; plausible distractors; avoid 'All of the above/None of the above'.\n" +
	"4) The answer string must exactly match one of the options.\n" +
	"5) Base all content ONLY on the provided %s.\n" +
	"6) Clear, single-focus items; avoid ambiguity and double-negatives.\n"

// levelTemplate frames one difficulty tier. %d is the question count.
type levelTemplate struct {
	task  string
	focus []string
	stems []string
}

var levels = map[domain.Difficulty]levelTemplate{
	domain.DifficultyEasy: {
		task: "Task: Generate %d MCQs at **Remembering/Understanding** levels of Bloom's.\n",
		focus: []string{
			"- Focus: facts, definitions, key terms, purposes, simple interpretations.",
			"- Cognitive ops: recognize, recall, define, identify, classify, summarize.",
		},
		stems: []string{
			"Which of the following best defines <term>?",
			"According to the text, what is the purpose of <X>?",
			"<Concept> is primarily associated with which of the following?",
			"Which statement is TRUE about <topic>?",
			"Identify the correct sequence/element/label for <diagram/text excerpt>.",
		},
	},
	domain.DifficultyMedium: {
		task: "Task: Generate %d MCQs at **Applying/Analyzing** levels of Bloom's.\n",
		focus: []string{
			"- Focus: applying procedures, interpreting data/figures, comparing/contrasting, categorizing, inference.",
			"- Cognitive ops: apply, compute, infer, organize, differentiate, compare.",
		},
		stems: []string{
			"Given the scenario, which approach should be applied first?",
			"Which inference can be drawn from the data/example provided in the text?",
			"Which option best completes the classification of <items>?",
			"Compared with <A>, <B> primarily differs in which aspect?",
			"What is the most appropriate calculation/step to solve <problem> using the method described?",
		},
	},
	domain.DifficultyHard: {
		task: "Task: Generate %d MCQs at **Evaluating/Creating** levels of Bloom's with a strong **case-study** focus.\n",
		focus: []string{
			"- For at least HALF of the questions, include a **2-3 sentence mini case** derived from the text (synthesize details; do not invent facts beyond it).",
			"- Focus: critique decisions, weigh trade-offs, choose optimal designs/strategies, predict outcomes, justify selections.",
			"- Cognitive ops: evaluate, prioritize, justify, design, propose, adapt.",
		},
		stems: []string{
			"CASE: <2-3 sentence scenario>. Which decision best addresses the constraints described?",
			"Based on the criteria outlined in the text, which option is the most defensible choice and why?",
			"If applying the framework to <new but text-consistent context>, which modification is most appropriate?",
			"Which risk/assumption most critically impacts the outcome in the scenario described?",
			"Which design/plan best meets the specified objectives and constraints?",
		},
	},
}

// Builder assembles prompts. It is pure: equal inputs give equal output.
type Builder struct {
	maxContentChars int
}

// NewBuilder returns a Builder that embeds at most maxContentChars characters of content.
func NewBuilder(maxContentChars int) *Builder {
	return &Builder{maxContentChars: maxContentChars}
}

// MaxContentChars is the content budget in characters.
func (b *Builder) MaxContentChars() int {
	return b.maxContentChars
}

// BuildPrompt returns the instruction text for a text-sourced quiz.
func (b *Builder) BuildPrompt(content string, difficulty domain.Difficulty, count int, guidance string) string {
	var sb strings.Builder
	writeInstructions(&sb, difficulty, count, guidance, "text")
	sb.WriteString("\n\nUse this text as the knowledge source:\n")
	sb.WriteString(Truncate(content, b.maxContentChars))
	return sb.String()
}

// BuildImagePrompt returns the instruction text for images sent directly to a vision model.
func (b *Builder) BuildImagePrompt(difficulty domain.Difficulty, count int, guidance string) string {
	var sb strings.Builder
	sb.WriteString("Use ONLY the content of the attached image(s).\n")
	writeInstructions(&sb, difficulty, count, guidance, "image(s)")
	return sb.String()
}

func writeInstructions(sb *strings.Builder, difficulty domain.Difficulty, count int, guidance, source string) {
	level, ok := levels[difficulty]
	if !ok {
		level = levels[domain.DifficultyEasy]
	}

	fmt.Fprintf(sb, level.task, count)
	for _, line := range level.focus {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("Suggested question-stem patterns:\n")
	for _, stem := range level.stems {
		sb.WriteString("• ")
		sb.WriteString(stem)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	fmt.Fprintf(sb, formatRules, source)

	if clean, _ := Sanitize(guidance); clean != "" {
		sb.WriteString("\nAdditional user guidance (follow without breaking the JSON schema):\n")
		sb.WriteString("\"\"\"\n")
		sb.WriteString(clean)
		sb.WriteString("\n\"\"\"\n")
	}

	sb.WriteString("\nOutput ONLY the JSON object.")
}

// Truncate cuts s to at most max characters without splitting a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
