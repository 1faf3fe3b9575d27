package models

const (
	ThinkTag         = `(?s)<think>.*?</think>`
	CodeFence        = "(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$"
	ContextSeparator = "\n---\n"
)

var (
	QuestionAnswerPromptTemplate = `For the question below, provide a concise but sufficient answer based ONLY on the provided context.
If the context does not contain the answer, say that the document does not cover it.
Reply with a single JSON object of the form {"answer": "<your answer>"} and nothing else.

Context:
{{.context}}

Question:
{{.question}}
`
)
