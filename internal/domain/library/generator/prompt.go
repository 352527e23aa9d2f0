package generator

import (
	"fmt"
	"strings"

	"hakayat/internal/domain/story"
)

const systemInstruction = "You are a professional storyteller (Hakawati) and novelist. " +
	"You write captivating stories with rich vocabulary appropriate for the target age and selected genre."

// ImageStyle is appended to every illustration prompt.
const ImageStyle = ", storybook illustration style, high quality, warm lighting, digital art, detailed"

func lengthInstruction(l story.Length) string {
	switch l {
	case story.LengthMedium:
		return "Make it a very detailed story with multiple scenes (aim for 5000 words)."
	case story.LengthLong:
		return "Write an extensive story, divided into clear chapters (aim for 10000 words)."
	case story.LengthVeryLong:
		return "Write a very long narrative, rich in description and dialogue (aim for 15000 words)."
	case story.LengthEpic:
		return "Write a novel-length epic, highly detailed, complex plot (aim for 20000 words)."
	default:
		return "Make it a detailed story (approx 1000 words)."
	}
}

func toneInstruction(age story.AgeGroup, genre story.Genre) string {
	switch age {
	case story.AgeAdult:
		tone := "Target Audience: Adults (18+). Narrative Style: Mature, complex, and psychologically rich. " +
			"Focus on deep character psychology, moral ambiguity, and realistic consequences."
		if genre == story.GenreAdultRomance {
			return tone + " FOCUS: This is an intimate romance story. Focus on emotional connection and the " +
				"complexities of adult relationships, with literary quality and no non-consensual content or gratuitous violence."
		}
		return tone + " While the story must remain safe (avoiding gratuitous violence), do not shy away from " +
			"serious, dark, or challenging topics. The language should be literary and evocative."
	case story.AgeTeen:
		return "The story is for teenagers. It can have relatable conflicts, romance, and action. Focus on identity and growth."
	default:
		return "The story should be suitable for children, safe, and educational."
	}
}

// temperature is higher for adult fiction.
func temperature(age story.AgeGroup) float32 {
	if age == story.AgeAdult {
		return 1.0
	}
	return 0.8
}

// buildPrompt renders the user prompt for a generation request.
func buildPrompt(p story.Params) string {
	language := p.Language
	if language == "" {
		language = "Arabic"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a creative and engaging story in %s based on the following details:\n", language)
	fmt.Fprintf(&b, "- Topic/Prompt: %s\n", p.Prompt)
	fmt.Fprintf(&b, "- Genre: %s\n", p.Genre)
	fmt.Fprintf(&b, "- Target Age Group: %s\n", p.AgeGroup)
	fmt.Fprintf(&b, "- Length Instruction: %s\n", lengthInstruction(p.Length))
	if name := strings.TrimSpace(p.CharacterName); name != "" {
		fmt.Fprintf(&b, "- Main Character Name: %s\n", name)
	}
	b.WriteString("\nInstructions:\n")
	fmt.Fprintf(&b, "1. %s\n", toneInstruction(p.AgeGroup, p.Genre))
	b.WriteString("2. The story should be culturally appropriate, engaging, and well-structured.\n")
	b.WriteString("3. Provide the output strictly in JSON format matching the schema.\n")
	fmt.Fprintf(&b, "4. IMPORTANT: The 'imagePrompt' field MUST be in English. The rest of the fields MUST be in %s.\n", language)
	b.WriteString("5. For longer stories, ensure the content is as long as requested. Use clear double line breaks between paragraphs.\n")
	return b.String()
}
