package style

import (
	"fmt"
	"strings"

	"photostyler/internal/domain"
)

// Catalog holds the fixed, ordered set of style presets offered to users.
// The set never changes after construction.
type Catalog struct {
	presets []domain.StylePreset
	byID    map[string]domain.StylePreset
}

// NewCatalog builds the catalog from the built-in preset list.
func NewCatalog() *Catalog {
	byID := make(map[string]domain.StylePreset, len(presets))
	for _, p := range presets {
		byID[p.ID] = p
	}
	return &Catalog{presets: presets, byID: byID}
}

// List returns every preset in catalog order. Callers must not mutate the
// returned slice.
func (c *Catalog) List() []domain.StylePreset {
	return c.presets
}

// Resolve turns a style selection into the prompt text sent to a provider.
// For the custom style the user-entered text is used instead of a template;
// blank custom text is a validation failure, not a fault.
func (c *Catalog) Resolve(id, customText string) (string, error) {
	if id == domain.CustomStyleID {
		text := strings.TrimSpace(customText)
		if text == "" {
			return "", domain.ErrEmptyCustomPrompt
		}
		return text, nil
	}
	preset, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("style %q: %w", id, domain.ErrStyleNotFound)
	}
	return preset.Prompt, nil
}

const keepComposition = "Please maintain the original composition, character poses and details. "

var presets = []domain.StylePreset{
	{ID: domain.CustomStyleID, Name: "自定义风格", Prompt: ""},
	{
		ID:     "qversion",
		Name:   "Q版手办",
		Prompt: keepComposition + "Transform into cute chibi figure style, kawaii collectible toy, vinyl figure aesthetic, pastel colors, adorable character design with rounded features",
	},
	{
		ID:     "toy-package",
		Name:   "玩具包装",
		Prompt: keepComposition + "Transform into toy packaging design style, vibrant commercial product presentation, collectible figure in display box, retail packaging aesthetic",
	},
	{
		ID:     "3d-model",
		Name:   "3D模型",
		Prompt: keepComposition + "Transform into 3D rendered character style, clean modeling, professional studio lighting, digital sculpture, high quality render with smooth surfaces",
	},
	{
		ID:     "blind-box",
		Name:   "盲盒",
		Prompt: keepComposition + "Transform into blind box collectible character style, cute mascot design, pastel colors, kawaii aesthetic, small figure with simple features",
	},
	{
		ID:     "pixar",
		Name:   "皮克斯",
		Prompt: keepComposition + "Transform into Pixar animation style, 3D cartoon character, expressive features, Disney Pixar aesthetic, animated movie style with warm lighting",
	},
	{
		ID:     "polaroid-clay",
		Name:   "拍立得黏土",
		Prompt: keepComposition + "Transform into polaroid photo of clay sculpture style, handmade clay figure, soft textures, warm lighting, instant film aesthetic with clay material",
	},
	{
		ID:     "polaroid-real",
		Name:   "拍立得写实",
		Prompt: keepComposition + "Transform into realistic polaroid photo style, instant film aesthetic, warm vintage tones, retro photography with film grain",
	},
	{
		ID:     "jewelry-box",
		Name:   "珠宝盒",
		Prompt: keepComposition + "Transform into elegant portrait in ornate jewelry box frame, luxurious decorative border, precious gems, golden details, vintage elegance",
	},
	{
		ID:     "q-icon",
		Name:   "Q版图标",
		Prompt: keepComposition + "Transform into cute icon style character, simplified kawaii features, app icon aesthetic, clean vector style, chibi design with bold outlines",
	},
	{
		ID:     "cartoon-sticker",
		Name:   "卡通贴纸",
		Prompt: keepComposition + "Transform into cartoon sticker style, bright colors, bold outlines, kawaii design, cute character sticker aesthetic with glossy finish",
	},
	{
		ID:     "doraemon",
		Name:   "多啦A梦",
		Prompt: keepComposition + "Transform into Doraemon anime style, classic Japanese cartoon aesthetic, simple rounded features, bright blue and white colors, manga style",
	},
	{
		ID:     "snoopy",
		Name:   "史努比",
		Prompt: keepComposition + "Transform into Snoopy comic style, Peanuts cartoon aesthetic, simple line art, black and white with minimal colors, classic comic strip style",
	},
	{
		ID:     "japanese-illustration",
		Name:   "日本插画",
		Prompt: keepComposition + "Transform into Japanese illustration style, soft watercolor textures, delicate line work, pastel colors, kawaii aesthetic, anime-inspired art",
	},
	{
		ID:     "wool-felt",
		Name:   "羊毛毡",
		Prompt: keepComposition + "Transform into wool felt craft style, handmade felt texture, soft fuzzy materials, needle felting aesthetic, cozy handcraft appearance",
	},
	{
		ID:     "enamel-pin",
		Name:   "珐琅别针",
		Prompt: keepComposition + "Transform into enamel pin style, hard enamel finish, bold colors, metallic outlines, collectible pin aesthetic, glossy surface",
	},
	{
		ID:     "fashion-magazine",
		Name:   "时尚杂志",
		Prompt: keepComposition + "Transform into fashion magazine style, high-end editorial photography, professional lighting, glamorous styling, vogue aesthetic, sophisticated composition",
	},
	{
		ID:     "crystal-ball",
		Name:   "水晶球",
		Prompt: keepComposition + "Transform into crystal ball snow globe style, miniature scene inside glass sphere, magical sparkles, dreamy atmosphere, transparent crystal effect",
	},
}
