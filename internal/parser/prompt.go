package parser

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert at analyzing educational assignments. " +
	"You can identify interdependent problems and extract structured information including tables. " +
	"Respond with valid JSON only."

const instructions = `Extract the following from the provided assignment text:
1. The assignment title
2. Global instructions that apply to all questions
3. Each individual question, numbered in order
4. Tables with their data in a structured format

Format your response as a JSON object with:
- "title": The assignment title
- "globalInstructions": Overall instructions for the assignment
- "tables": Array of tables, each with { "id": "string", "data": [[row1col1, row1col2], ...] }
- "questions": Array of questions, each with:
  - "number": The question number
  - "text": The question text
  - "dependsOn": Array of earlier question numbers this question builds on (empty if none)
  - "requiredForNext": Boolean indicating if this question is required for the next
  - "tableData": Array of table ids from "tables" that this question uses (empty if none)

Extract tables that appear in the assignment and include the data with the relevant questions.
`

func buildPrompt(in Input, budget int) string {
	var b strings.Builder
	b.WriteString(instructions)

	if len(in.Tables) > 0 {
		fmt.Fprintf(&b, "\nThe assignment contains %d tables:\n", len(in.Tables))
		for i, t := range in.Tables {
			fmt.Fprintf(&b, "Table %d (page %d):\n", i+1, t.Page)
			for _, row := range t.Content.Rows {
				b.WriteString(strings.Join(row, " | "))
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString("\nHere is the assignment text:\n")
	b.WriteString(truncate(in.Text, budget))
	return b.String()
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
