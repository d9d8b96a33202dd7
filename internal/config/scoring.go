package config

// DefaultCTFFlag is the canonical answer to the shared flag question.
const DefaultCTFFlag = "Maybe the the real CTF is the friends we made along the way."

// ScoringConfig defines the participant roster and the point values of the
// fixed questions.  Participants is an ordered list of usernames; the
// scoreboard enumerates teams in exactly this order.
type ScoringConfig struct {
	Participants            []string
	CTFFlag                 string
	CTFFlagPoints           int
	PIIPoints               int
	UnreleasedProductPoints int
}

// LoadScoringConfig reads the scoring settings.  PARTICIPANTS is a comma
// separated list of usernames.
func LoadScoringConfig() ScoringConfig {
	return ScoringConfig{
		Participants:            splitList(getenv("PARTICIPANTS", "Hackors1,Hackors2,Hackors3,Hackors4")),
		CTFFlag:                 getenv("CTF_FLAG", DefaultCTFFlag),
		CTFFlagPoints:           envInt("CTF_FLAG_POINTS", 5000000),
		PIIPoints:               envInt("PII_POINTS", 1000000),
		UnreleasedProductPoints: envInt("UNRELEASED_PRODUCT_POINTS", 2500000),
	}
}
