package synthesizer

import (
	"fmt"
	"strings"
)

const topicPromptTemplate = `You are a tech content strategist for a company specializing in:
- Cloud Infrastructure & DevOps
- AI & Machine Learning Services
- Software Development
- Cybersecurity

Generate ONE specific, engaging blog topic idea that would interest potential customers and tech professionals.

The topic should be:
1. Timely and relevant to current tech trends
2. Specific enough to write a focused article (not too broad)
3. Actionable or educational for the reader
4. SEO-friendly with good search potential

Focus areas to choose from: %s
%s%s
Respond with ONLY the topic title, nothing else. No quotes, no explanation.`

const articleSchemaBlock = `Respond in this exact JSON format (no markdown code blocks, just raw JSON):
{
    "title": "Engaging SEO-friendly title",
    "slug": "url-friendly-slug-with-dashes",
    "meta_description": "Compelling 150-160 character description for search results",
    "intro": "<p>Opening paragraphs introducing the topic...</p>",
    "sections": [
        {"heading": "Section heading", "content": "<p>Section body HTML...</p>", "image_keyword": "visual search term"}
    ],
    "conclusion": "<p>Closing paragraphs...</p>",
    "tags": ["Tag1", "Tag2", "Tag3", "Tag4", "Tag5"],
    "image_keywords": ["keyword1", "keyword2", "keyword3"],
    "video_keywords": ["keyword1", "keyword2"]
}

Include 3-4 sections. For intro, section content and conclusion:
- Use <p> for paragraphs
- Use <h3> for subsections inside a section
- Use <ul>/<li> or <ol>/<li> for lists
- Use <strong> for emphasis
- Use <blockquote> for important quotes or callouts
- Use <code> for inline code mentions
- Use <pre><code> for code blocks
- Do NOT include <h1> or <h2> tags (headings are added separately)
- Do NOT include any scripts or external resources

Tags should be single words or short phrases, capitalized properly (at most 5).
image_keywords should be 3 simple, visual search terms for finding a relevant header image (e.g., "cloud computing", "server room", "cybersecurity").
video_keywords should be 2 search terms for finding a relevant explainer video.`

const articlePromptTemplate = `Write a professional, engaging blog post about: "%s"

This is for a tech blog targeting:
- IT professionals and developers
- CTOs and tech decision makers
- Companies looking for cloud, AI, or development services

Requirements:
1. Write in a professional but approachable tone
2. Include practical insights, examples, or actionable advice
3. Length: 800-1200 words total
4. Make it SEO-optimized

%s`

const regeneratePromptTemplate = `Write a professional blog post about: "%s"

Previous feedback to incorporate: %s

This is for a tech blog targeting IT professionals, developers, and tech decision makers.
Length: 800-1200 words total.

%s`

// maxExclusionTitles bounds the exclusion list embedded in topic prompts.
const maxExclusionTitles = 20

func buildTopicPrompt(focusAreas, excludeTitles []string, trendingSummary string) string {
	exclusion := ""
	if len(excludeTitles) > 0 {
		recent := excludeTitles
		if len(recent) > maxExclusionTitles {
			recent = recent[len(recent)-maxExclusionTitles:]
		}
		var b strings.Builder
		b.WriteString("\nAvoid these recently covered topics:\n")
		for _, t := range recent {
			b.WriteString("- " + t + "\n")
		}
		exclusion = b.String()
	}

	trending := ""
	if trendingSummary != "" {
		trending = "\nFor inspiration, these topics are trending right now:\n" + trendingSummary + "\n"
	}

	return fmt.Sprintf(topicPromptTemplate, strings.Join(focusAreas, ", "), exclusion, trending)
}

func buildArticlePrompt(topic string) string {
	return fmt.Sprintf(articlePromptTemplate, topic, articleSchemaBlock)
}

func buildRegeneratePrompt(topic, feedback string) string {
	return fmt.Sprintf(regeneratePromptTemplate, topic, feedback, articleSchemaBlock)
}
