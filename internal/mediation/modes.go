package mediation

import (
	"time"

	"github.com/stemsi/guidedwork-backend/internal/model"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultTemperature = 0.7
)

// Mode describes how one assistance policy talks to the model.
type Mode struct {
	Name model.AIOption

	// System states the pedagogical contract; Requirements become the
	// "Your response MUST:" list that closes the system prompt.
	System       string
	Requirements []string

	MaxTokens        int
	Timeout          time.Duration
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32

	// Input guards. A request below any minimum gets GuardMessage and no model call.
	MinPrompt    int
	MinInput     int
	MinQuestion  int
	GuardMessage string

	// UsesPrompt and ShowWork control which student fields reach the user turn.
	UsesPrompt     bool
	ShowWork       bool
	RequestLabel   string
	DefaultRequest string
	Closing        string

	PostProcess    func(string) string
	TimeoutMessage string
	ErrorMessage   string
}

var modes = map[model.AIOption]Mode{
	model.AIOptionCompare: {
		Name: model.AIOptionCompare,
		System: `You are a knowledgeable AI tutor. Provide an educational model answer to the following assignment question. Your answer should:

1. Be well-structured and clear
2. Demonstrate proper reasoning steps
3. Explain the approach and key concepts
4. Be concise yet comprehensive
5. Show work where applicable (for math/science problems)
6. Use academic/formal language appropriate to the subject

This answer will be used for comparison with a student's own work to help them learn.`,
		Requirements: []string{
			"Give a complete model answer to the question",
			"Show the reasoning that leads to the answer",
		},
		MaxTokens:      800,
		Timeout:        20 * time.Second,
		MinQuestion:    5,
		GuardMessage:   "I need a proper question to provide an answer. Please ensure the question is complete.",
		DefaultRequest: "Please provide a model answer for this question.",
		PostProcess:    appendDisclaimer,
		TimeoutMessage: "Request timed out. Please try again.",
		ErrorMessage:   "There was an error generating the AI answer. Please try again.",
	},
	model.AIOptionHints: {
		Name: model.AIOptionHints,
		System: `You are an AI tutor that provides targeted, concise hints that help students develop critical thinking skills.

Guidelines for effective hinting:
1. NEVER provide complete solutions or direct answers to the problem
2. Use the Socratic method - ask guiding questions that lead to discovery
3. Focus on concepts, not calculations
4. Keep hints brief (max 2-3 sentences)
5. Point to relevant principles or formulas without applying them directly
6. If the student is completely stuck, provide only the first step
7. Use analogies or simplified examples to clarify concepts
8. Match the hint complexity to the student's current understanding`,
		Requirements: []string{
			"Be under 80 words",
			"Focus on process/approach rather than the final answer",
			`Avoid giving away key insights that would prevent the student from experiencing the "aha moment"`,
			"End with a thought-provoking question that guides the student's next step",
		},
		MaxTokens:        150,
		PresencePenalty:  0.6,
		FrequencyPenalty: 0.3,
		MinPrompt:        3,
		GuardMessage:     "Please provide more details about what you're struggling with. A good hint request focuses on a concept or step you're stuck on.",
		UsesPrompt:       true,
		ShowWork:         true,
		RequestLabel:     "Student's request for help",
		Closing:          "Respond with a brief, targeted hint that promotes critical thinking without giving away the answer.",
		PostProcess:      truncateHint,
		TimeoutMessage:   "Request timed out. Please try asking for a more specific hint about a particular concept or step.",
		ErrorMessage:     "I couldn't generate a hint right now. Try asking about a specific concept or step you're struggling with.",
	},
	model.AIOptionGuidance: {
		Name: model.AIOptionGuidance,
		System: `You are an AI tutor that provides process guidance that helps students develop their own problem-solving skills.

Guidelines for effective guidance:
1. NEVER provide complete solutions
2. Provide a structured framework or methodology for approaching the problem
3. Encourage metacognition - help students think about their thinking
4. Suggest general strategies without specific application
5. Break complex problems into conceptual steps
6. Recommend what information or resources might be helpful
7. Model the thought process an expert would use, without executing it`,
		Requirements: []string{
			"Provide a structured approach (3-5 steps maximum)",
			"Focus on methodology, not specifics",
			"Include prompts for self-assessment at each step",
			"End with a question that helps the student evaluate their understanding",
		},
		MaxTokens:      300,
		MinPrompt:      3,
		GuardMessage:   "Please clarify what aspect of the problem you need guidance on. Be specific about what you're trying to understand.",
		UsesPrompt:     true,
		ShowWork:       true,
		RequestLabel:   "Student's request for guidance",
		Closing:        "Provide a framework or approach that will help the student think through this problem without giving away the solution.",
		TimeoutMessage: "Request timed out. Consider breaking your question into smaller parts.",
		ErrorMessage:   "I couldn't generate guidance right now. Please try asking a more specific question about your approach.",
	},
	model.AIOptionExamples: {
		Name: model.AIOptionExamples,
		System: `You are an AI tutor that provides illuminating examples to help students understand concepts and methods. Your examples should:

1. Be clearly different from the student's specific question
2. Illustrate the underlying principles rather than the exact problem
3. Include both the process and the solution to show proper thinking
4. Scale in complexity from simpler to more nuanced cases
5. Highlight common misconceptions or pitfalls
6. Be relevant to the student's level of understanding`,
		Requirements: []string{
			"Provide 2-3 distinct examples that illustrate the concept/method",
			"Explain why each example is relevant",
			"NOT solve the student's specific problem directly",
			"End with a suggestion for how the student can apply what they've learned",
		},
		MaxTokens:      700,
		MinPrompt:      3,
		GuardMessage:   "Please provide more details for what kind of examples would be helpful. What specific concept or method are you trying to understand?",
		UsesPrompt:     true,
		ShowWork:       true,
		RequestLabel:   "Request for examples",
		TimeoutMessage: "Request timed out. Please try asking for examples of a more specific concept.",
		ErrorMessage:   "There was an error generating examples. Please try asking for examples of a more specific concept or technique.",
	},
	model.AIOptionStepFramework: {
		Name: model.AIOptionStepFramework,
		System: `You are an AI tutor that helps students learn problem-solving methodologies. Provide a clear step-by-step framework that teaches the process, not the specific solution. Your framework should:

1. Break down the problem-solving process into clear, sequential steps
2. Explain the purpose and thinking behind each step
3. Include decision points where different approaches might be taken
4. Highlight what to check or verify at critical stages
5. Emphasize metacognitive aspects (planning, monitoring, evaluating)
6. Be applicable to similar problems in this domain`,
		Requirements: []string{
			"Provide 4-6 clear steps (not more)",
			"Include guidance questions at each step",
			"NOT solve the specific problem",
			"Include a metacognition step at the end for self-assessment",
		},
		MaxTokens:      600,
		MinPrompt:      3,
		GuardMessage:   "Please provide more details about which part of the problem you'd like a step-by-step framework for.",
		UsesPrompt:     true,
		ShowWork:       true,
		RequestLabel:   "The student is asking",
		TimeoutMessage: "Request timed out. Please try with a simpler question.",
		ErrorMessage:   "There was an error generating a step-by-step framework. Please try again with a more specific request.",
	},
	model.AIOptionSocratic: {
		Name: model.AIOptionSocratic,
		System: `You are an AI tutor using the Socratic method to develop critical thinking skills. Your questions should:

1. Lead students to discover insights on their own
2. Move from foundational understanding to deeper analysis
3. Address misconceptions visible in the student's work
4. Highlight connections between concepts
5. Encourage metacognition and self-assessment
6. Be open-ended rather than yes/no questions
7. Challenge assumptions`,
		Requirements: []string{
			"Provide 3-5 thoughtfully sequenced questions",
			"Start with more foundational questions before moving to complex ones",
			"Include a brief explanation of why each question is helpful (in parentheses)",
			"End with an encouraging note about the value of this reflection",
		},
		MaxTokens:      500,
		UsesPrompt:     true,
		ShowWork:       true,
		RequestLabel:   "Student's request",
		DefaultRequest: "Please provide Socratic questions to help the student think through this problem.",
		PostProcess:    numberQuestions,
		TimeoutMessage: "Request timed out. Please try with a more specific question about what you're struggling with.",
		ErrorMessage:   "There was an error generating Socratic questions. Please try again with more details about your current understanding.",
	},
	model.AIOptionErrorDetection: {
		Name: model.AIOptionErrorDetection,
		System: `You are an AI tutor that helps students identify potential areas for improvement in their work. Your feedback should:

1. Focus on types of errors rather than specific corrections
2. Encourage self-correction through guided questions
3. Provide principles and patterns to check for
4. Highlight areas of strength as well as improvement
5. Suggest verification techniques (e.g., "try testing with these values")
6. Be constructive and educational, not just evaluative`,
		Requirements: []string{
			"Identify 2-3 potential areas for review (not necessarily errors)",
			"Ask guiding questions that lead to self-correction",
			"NOT provide direct corrections or solutions",
			"Include at least one strength in the student's approach",
			"Suggest a verification strategy to help the student self-check",
		},
		MaxTokens:      500,
		MinInput:       5,
		GuardMessage:   "Please provide your work first so I can help identify potential areas for improvement. I'll focus on guiding you rather than giving direct corrections.",
		UsesPrompt:     true,
		ShowWork:       true,
		RequestLabel:   "Additional request",
		DefaultRequest: "Please help me identify any areas for improvement in my work.",
		TimeoutMessage: "Request timed out. Please try submitting a smaller portion of your work for review.",
		ErrorMessage:   "There was an error analyzing your work. Please try again with a clearer explanation of what you'd like feedback on.",
	},
}

// Lookup returns the descriptor for an AI mode. no_ai and unknown names report false.
func Lookup(name model.AIOption) (Mode, bool) {
	m, ok := modes[name]
	if !ok {
		return Mode{}, false
	}
	if m.Timeout == 0 {
		m.Timeout = defaultTimeout
	}
	if m.Temperature == 0 {
		m.Temperature = defaultTemperature
	}
	return m, true
}
