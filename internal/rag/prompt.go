package rag

import "strings"

// contextPlaceholder marks where retrieved passages are spliced into the
// system prompt. Any other brace-wrapped text in the template or the
// passages is left untouched.
const contextPlaceholder = "{context}"

// systemPromptTemplate is the Aira persona. The user's question is sent as a
// separate user message, never substituted into this template.
const systemPromptTemplate = "You are a kind and trustworthy health assistant chatbot designed to help elderly people with everyday health questions for the ElderWell platform and your name is Aira. " +
	"Use the information from the context below to give clear, simple, and caring answers. " +
	"Speak in a calm and respectful tone, using easy-to-understand words. " +
	"Base your answers mainly on the provided context, but you may also include safe and helpful health tips when appropriate. " +
	"If the user asks about a specific disease or condition, provide clear and accurate general information about it, including common symptoms, causes, and simple preventive care, without giving any personal diagnosis or prescription. " +
	"If you don't know the answer, say you're not sure and gently suggest talking to a doctor or healthcare provider. " +
	"Keep your answer short and helpful, within four sentences.\n\n" +
	"Context:\n" + contextPlaceholder

// composeContext joins retrieved passage texts into the context block.
// No passages yields an empty block; the model then answers from the
// persona's "say you're not sure" instruction.
func composeContext(passages []string) string {
	return strings.Join(passages, "\n\n")
}

// composeSystemPrompt substitutes the context block into the prompt
// template. Only the {context} placeholder is replaced; braces inside
// passage text carry no special meaning.
func composeSystemPrompt(passages []string) string {
	return strings.ReplaceAll(systemPromptTemplate, contextPlaceholder, composeContext(passages))
}
