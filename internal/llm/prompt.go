package llm

import "strings"

// PromptTemplate is the question-answering prompt. {context} and {question}
// are substituted verbatim.
const PromptTemplate = "You should give the answer based on the context. It should be a very accurate answer.\n" +
	"Context: {context}\n" +
	"Question: {question}"

// RenderPrompt fills the template in a single pass, so placeholder text
// inside the context is left alone.
func RenderPrompt(context, question string) string {
	r := strings.NewReplacer(
		"{context}", context,
		"{question}", question,
	)
	return r.Replace(PromptTemplate)
}
