package assistant

import (
	"fmt"
	"strings"
)

// EmptyContextSentence replaces the JSON block when the user has no records,
// so the model acknowledges absence instead of inventing figures.
const EmptyContextSentence = "No spending data found for this user."

// NoReportDataMessage is the fixed response when a report is requested with
// no data to analyze. It is returned without invoking the model.
const NoReportDataMessage = "I can't generate a report yet. Please upload some receipts first!"

// BuildAnswerPrompt composes the Q&A prompt: role instruction, serialized
// context and the user's question. The grounding constraint tells the model
// to state inability rather than fabricate financial figures.
func BuildAnswerPrompt(window ContextWindow, question string) string {
	var b strings.Builder

	b.WriteString("You are 'LUMEN', a helpful and insightful financial coach.\n")
	b.WriteString("You are speaking directly to your user.\n\n")
	b.WriteString("Based ONLY on the user's spending data provided below, answer their question.\n")
	b.WriteString("If the data is not present, just say \"I don't have that information in your records.\"\n\n")
	b.WriteString("Here is the user's spending data (in JSON format):\n")
	b.WriteString(renderContext(window))
	b.WriteString("\n\nUser's Question:\n")
	fmt.Fprintf(&b, "%q", question)
	b.WriteString("\n\nYour Answer:\n")

	return b.String()
}

// BuildReportPrompt composes the proactive report prompt. When the window is
// empty it returns ok=false: the caller must respond with NoReportDataMessage
// and skip the model call entirely.
func BuildReportPrompt(window ContextWindow) (string, bool) {
	if window.Empty() {
		return "", false
	}

	var b strings.Builder

	b.WriteString("You are 'LUMEN', a proactive 'Budget Agent' for a financial wellness app.\n")
	b.WriteString("Your tone is encouraging, clear, and insightful.\n\n")
	b.WriteString("Analyze the user's complete spending history provided below (in JSON format).\n")
	b.WriteString("Generate a \"Monthly Financial Health Report\" for the user.\n\n")
	b.WriteString("Your report MUST:\n")
	b.WriteString("1. Start with a brief, positive greeting.\n")
	b.WriteString("2. Identify their top spending category this month.\n")
	b.WriteString("3. Provide one simple, actionable insight or tip based on their spending.\n")
	b.WriteString("4. Be formatted in simple markdown.\n\n")
	b.WriteString("Here is the user's spending data:\n")
	b.WriteString(window.JSON())
	b.WriteString("\n\nYour Report:\n")

	return b.String(), true
}

func renderContext(window ContextWindow) string {
	if window.Empty() {
		return EmptyContextSentence
	}
	return window.JSON()
}
