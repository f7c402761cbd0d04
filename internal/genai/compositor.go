package genai

import (
	"context"
	"fmt"
	"strings"
)

type fetchFunc func(ctx context.Context, url string) ([]byte, string, error)

// Compositor turns a generation request into an ordered multimodal part
// list. The ordering is deterministic and matters for model grounding:
// character label/image pairs first, then the anchor image, then extra style
// references, then the free-text instruction last.
type Compositor struct {
	fetch fetchFunc
}

func NewCompositor() *Compositor {
	return &Compositor{fetch: FetchImage}
}

func (c *Compositor) Build(ctx context.Context, req Request) ([]Part, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, fmt.Errorf("instruction is required")
	}

	var parts []Part

	for _, ref := range req.Characters {
		if ref.ImageURL == "" {
			return nil, fmt.Errorf("character %q has no reference image", ref.Name)
		}
		data, mime, err := c.fetch(ctx, ref.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch character reference %q: %w", ref.Name, err)
		}
		data, mime = Normalize(data, mime, DefaultTier)
		parts = append(parts, TextPart(characterLabel(ref)), ImagePart(data, mime))
	}

	if req.AnchorURL != "" {
		data, mime, err := c.fetch(ctx, req.AnchorURL)
		if err != nil {
			return nil, fmt.Errorf("fetch anchor image: %w", err)
		}
		data, mime = Normalize(data, mime, AnchorTier)
		parts = append(parts, TextPart(anchorLabel(req.AnchorAsSceneBase)), ImagePart(data, mime))
	}

	for _, url := range req.StyleRefs {
		data, mime, err := c.fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch style reference: %w", err)
		}
		data, mime = Normalize(data, mime, DefaultTier)
		parts = append(parts, TextPart("Additional style reference."), ImagePart(data, mime))
	}

	parts = append(parts, TextPart(req.Instruction))
	return parts, nil
}

func characterLabel(ref CharacterRef) string {
	role := ""
	if ref.Role != "" {
		role = fmt.Sprintf(" (%s)", ref.Role)
	}
	if ref.IsMain {
		// The main character is the single global style anchor.
		return fmt.Sprintf(
			"Character reference: %s%s, the main character. The next image shows %s. Match this exact appearance wherever %s appears. The art style of this image governs the entire scene, including background and props.",
			ref.Name, role, ref.Name, ref.Name)
	}
	return fmt.Sprintf(
		"Character reference: %s%s. The next image shows %s. Match this exact appearance; render in the main character's art style.",
		ref.Name, role, ref.Name)
}

func anchorLabel(sceneBase bool) string {
	if sceneBase {
		return "Scene base: edit this environment in place. Keep the background and layout; change only what the instruction asks for."
	}
	return "Continuity reference from the previous page. Match its art style, palette and lighting; do not copy its composition."
}
