package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// Result is the parsed reply from one inference call. It is never stored
// as-is; the pipeline projects accepted results into a LocationFact.
type Result struct {
	AttackedCity *string       `json:"attacked_city"`
	Attacker     *string       `json:"attacker"`
	Details      Details       `json:"attack_details"`
	Casualties   Casualties    `json:"casualties"`
	WeaponType   string        `json:"weapon_type"`
	IsToday      model.TriBool `json:"is_today"`
	Confidence   Confidence    `json:"confidence"`
}

// Details is the nested attack_details object.
type Details struct {
	TargetType   string `json:"target_type"`
	AttackTime   string `json:"attack_time"`
	AttackStatus string `json:"attack_status"`
}

// Casualties mirrors the casualties object; fields are tri-state.
type Casualties struct {
	Dead    model.Count `json:"dead"`
	Wounded model.Count `json:"wounded"`
}

// Confidence is the model's 0-100 certainty. Models occasionally quote the
// number, so it unmarshals from either form; anything unparseable is 0.
type Confidence int

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Confidence(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*c = Confidence(n)
			return nil
		}
	}
	*c = 0
	return nil
}

// normalize fills absent descriptive fields with the "No Info" sentinel so
// downstream code never sees empty strings.
func (r *Result) normalize() {
	if r.Details.TargetType == "" {
		r.Details.TargetType = model.NoInfo
	}
	if r.Details.AttackTime == "" {
		r.Details.AttackTime = model.NoInfo
	}
	if r.Details.AttackStatus == "" {
		r.Details.AttackStatus = model.NoInfo
	}
	if r.WeaponType == "" {
		r.WeaponType = model.NoInfo
	}
}
