package model

// PromptCard is the Part 2 task card
type PromptCard struct {
	Category     string   `json:"category" bson:"category"`
	MainPrompt   string   `json:"main_prompt" bson:"mainPrompt"`
	BulletPoints []string `json:"bullet_points" bson:"bulletPoints"`
}

// Text renders the card as a single examiner utterance
func (c *PromptCard) Text() string {
	if c == nil {
		return ""
	}
	s := c.MainPrompt + "\nYou should say:"
	for _, b := range c.BulletPoints {
		s += "\n- " + b
	}
	return s
}
