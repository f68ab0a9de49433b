package persona

// ID names one of the fixed personas.
type ID string

const (
	Empathizer ID = "empathizer"
	WiseElder  ID = "wise_elder"
	Motivator  ID = "motivator"
)

// Default is used whenever a caller supplies an unknown persona.
const Default = Empathizer

// Persona captures the attributes exposed to the frontend plus the system prompt
// that drives the model. Prompt is never serialized.
type Persona struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Tone   string `json:"tone"`
	Prompt string `json:"-"`
}

// Seed provides the built-in personas.
func Seed() []Persona {
	return []Persona{
		{
			ID:     Empathizer,
			Name:   "The Empathizer",
			Title:  "Compassionate listener",
			Tone:   "warm, validating, unhurried",
			Prompt: empathizerPrompt,
		},
		{
			ID:     WiseElder,
			Name:   "The Wise Elder",
			Title:  "Calm mentor",
			Tone:   "reflective, grounded, metaphorical",
			Prompt: wiseElderPrompt,
		},
		{
			ID:     Motivator,
			Name:   "The Motivator",
			Title:  "Energetic coach",
			Tone:   "upbeat, direct, action-oriented",
			Prompt: motivatorPrompt,
		},
	}
}
