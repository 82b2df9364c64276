package prompts

// TagVocabulary is the fixed anime-style tag vocabulary the classifier
// picks from. Free-form tags come only from the submitting user.
var TagVocabulary = []string{
	"anime", "avatar", "portrait", "chibi", "kawaii", "retro", "cyberpunk",
	"fantasy", "mecha", "magical-girl", "school", "idol", "gothic",
	"pastel", "monochrome", "watercolor", "pixel-art", "cat-ears",
	"blue-hair", "pink-hair", "silver-hair", "twin-tails", "glasses",
	"warrior", "witch", "samurai", "ninja", "vampire", "angel", "demon",
}

// TaggerSystemPrompt defines the role and rules for prompt classification.
const TaggerSystemPrompt = `You are a tag classifier for an anime avatar generator. Given a user's generation prompt, pick the tags that describe the requested image.

Rules:
- Pick only from the provided vocabulary, at most 8 tags.
- Output a comma-separated list of tags, nothing else.
- If nothing in the vocabulary fits, output an empty string.`

// TaggerUserPromptTemplate is the user message template; the vocabulary
// and the generation prompt are interpolated at call time.
const TaggerUserPromptTemplate = `Vocabulary: %s

Generation prompt: %s

Tags:`
