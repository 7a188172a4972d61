package apimodel

// Navigation is one turn-by-turn fact pushed by the companion app, either as a JSON line
// over the link or through the api.
type Navigation struct {
	Active     bool   `json:"active"`
	Title      string `json:"title"`
	Eta        string `json:"eta"`
	Duration   string `json:"duration"`
	Distance   string `json:"distance"`
	Directions string `json:"directions"`
	Icon       int    `json:"icon"`
}

type Status struct {
	Power              string `json:"power"`
	LinkConnected      bool   `json:"link_connected"`
	SecondaryConnected bool   `json:"secondary_connected"`
	Navigating         bool   `json:"navigating"`
	ClockText          string `json:"clock_text"`
	Display            string `json:"display"`
	Version            string `json:"version"`
}
