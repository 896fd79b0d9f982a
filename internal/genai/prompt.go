package genai

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert study assistant. You turn study material " +
	"into structured artifacts and always answer with a single JSON object in " +
	"exactly the format the user requests."

// maxSourceChars bounds the material excerpt sent to the model.
const maxSourceChars = 12000

func buildPrompt(kind string, text string, params map[string]string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create %s from the study material below.\n\n", kindDescription(kind)))

	if v := params["count"]; v != "" {
		b.WriteString(fmt.Sprintf("Number of items: %s\n", v))
	}
	if v := params["difficulty"]; v != "" {
		b.WriteString(fmt.Sprintf("Difficulty: %s\n", v))
	}
	if v := params["language"]; v != "" {
		b.WriteString(fmt.Sprintf("Language: %s\n", v))
	}
	if v := params["focus"]; v != "" {
		b.WriteString(fmt.Sprintf("Focus on: %s\n", v))
	}

	b.WriteString("\nStudy material:\n")
	if len(text) > maxSourceChars {
		b.WriteString(text[:maxSourceChars])
		b.WriteString("...")
	} else {
		b.WriteString(text)
	}

	b.WriteString("\n\nReturn a JSON object in exactly this format:\n")
	b.WriteString(artifactFormat(kind))
	return b.String()
}

func kindDescription(kind string) string {
	switch kind {
	case "test":
		return "a practice test with multiple-choice questions"
	case "flashcards":
		return "a deck of flashcards"
	default:
		return "structured study notes"
	}
}

func artifactFormat(kind string) string {
	switch kind {
	case "test":
		return `{
  "title": "test title",
  "questions": [
    {
      "question": "question text",
      "options": ["A. option", "B. option", "C. option", "D. option"],
      "correct_answer": "A",
      "explanation": "why the answer is correct"
    }
  ]
}`
	case "flashcards":
		return `{
  "title": "deck title",
  "cards": [
    {
      "front": "term or question",
      "back": "definition or answer"
    }
  ]
}`
	default:
		return `{
  "title": "notes title",
  "sections": [
    {
      "heading": "section heading",
      "points": ["key point", "key point"]
    }
  ]
}`
	}
}
