package genai

// Part is one element of a multimodal generation request: either text or
// encoded image bytes.
type Part struct {
	Text string
	Data []byte
	MIME string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(data []byte, mime string) Part {
	return Part{Data: data, MIME: mime}
}

func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

// Image is a generated image result.
type Image struct {
	Data []byte
	MIME string
}

// CharacterRef binds a character's name and role to its reference image.
type CharacterRef struct {
	Name     string
	ImageURL string
	Role     string
	IsMain   bool
}

// Request is the input to the compositor: a free-text instruction plus the
// visual grounding it should be anchored on.
type Request struct {
	Instruction string
	Characters  []CharacterRef
	// AnchorURL is the previous page's generated output, reused as a
	// style/continuity reference.
	AnchorURL string
	// AnchorAsSceneBase switches the anchor from a style reference to a
	// scene base edited in place.
	AnchorAsSceneBase bool
	StyleRefs         []string
	AspectRatio       string
}
