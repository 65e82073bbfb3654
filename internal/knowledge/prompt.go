// internal/knowledge/prompt.go
package knowledge

import (
	"fmt"
	"strings"
)

const answerPrompt = `Use the pieces of information provided in the context to answer the user's question.
If you don't know the answer, say that you don't know. Don't make up an answer.
Don't provide anything outside the given context.

Context:
%s

Question: %s

Start the answer directly. No small talk please.`

func buildPrompt(question string, docs []Document) string {
	var parts []string
	for i, d := range docs {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, d.Text()))
	}
	return fmt.Sprintf(answerPrompt, strings.Join(parts, "\n\n"), question)
}
