package httpapi

import "github.com/emberworks/arena/internal/game/combat"

type startRequest struct {
	LocationID string `json:"location_id"`
	Level      int    `json:"level"`
}

type tapRequest struct {
	TapDegrees float64 `json:"tap_degrees"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dialogueResponse struct {
	Lines []string `json:"lines"`
}

// enemyView is the client-visible slice of an enemy: stats the client needs
// to render the fight, never the loot or gold configuration.
type enemyView struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	MaxHP int    `json:"max_hp"`
	Style string `json:"style"`
}

type sessionResponse struct {
	ID             string            `json:"id"`
	LocationID     string            `json:"location_id"`
	Level          int               `json:"level"`
	Status         string            `json:"status"`
	Turn           int               `json:"turn"`
	PlayerHP       int               `json:"player_hp"`
	PlayerMaxHP    int               `json:"player_max_hp"`
	EnemyHP        int               `json:"enemy_hp"`
	Enemy          enemyView         `json:"enemy"`
	WinProbability float64           `json:"win_probability"`
	Log            []combat.LogEntry `json:"log"`
}

func newSessionResponse(s *combat.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		LocationID:  s.LocationID,
		Level:       s.Level,
		Status:      s.Status.String(),
		Turn:        s.Turn,
		PlayerHP:    s.PlayerHP,
		PlayerMaxHP: s.Stats.MaxHP,
		EnemyHP:     s.EnemyHP,
		Enemy: enemyView{
			Name:  s.Enemy.Name,
			Level: s.Enemy.Level,
			MaxHP: s.Enemy.MaxHP,
			Style: s.Enemy.Style,
		},
		WinProbability: s.WinProbability,
		Log:            s.Log,
	}
}

type attackResponse struct {
	Outcome       string            `json:"outcome"`
	Zone          string            `json:"zone"`
	DamageDealt   int               `json:"damage_dealt"`
	SelfDamage    int               `json:"self_damage"`
	CounterDamage int               `json:"counter_damage"`
	PlayerHP      int               `json:"player_hp"`
	EnemyHP       int               `json:"enemy_hp"`
	Turn          int               `json:"turn"`
	Entries       []combat.LogEntry `json:"entries"`
}

func newAttackResponse(out combat.AttackOutcome) attackResponse {
	return attackResponse{
		Outcome:       outcomeName(out.Kind),
		Zone:          out.Zone.String(),
		DamageDealt:   out.DamageDealt,
		SelfDamage:    out.SelfDamage,
		CounterDamage: out.CounterDamage,
		PlayerHP:      out.PlayerHP,
		EnemyHP:       out.EnemyHP,
		Turn:          out.Turn,
		Entries:       out.Entries,
	}
}

type defenseResponse struct {
	Outcome     string            `json:"outcome"`
	Zone        string            `json:"zone"`
	Mitigation  float64           `json:"mitigation"`
	DamageTaken int               `json:"damage_taken"`
	PlayerHP    int               `json:"player_hp"`
	EnemyHP     int               `json:"enemy_hp"`
	Turn        int               `json:"turn"`
	Entries     []combat.LogEntry `json:"entries"`
}

func newDefenseResponse(out combat.DefenseOutcome) defenseResponse {
	return defenseResponse{
		Outcome:     outcomeName(out.Kind),
		Zone:        out.Zone.String(),
		Mitigation:  out.Mitigation,
		DamageTaken: out.DamageTaken,
		PlayerHP:    out.PlayerHP,
		EnemyHP:     out.EnemyHP,
		Turn:        out.Turn,
		Entries:     out.Entries,
	}
}

type completeResponse struct {
	Rewards combat.RewardBundle `json:"rewards"`
	Log     []combat.LogEntry   `json:"log"`
}

func outcomeName(k combat.OutcomeKind) string {
	switch k {
	case combat.OutcomeVictory:
		return "victory"
	case combat.OutcomeDefeat:
		return "defeat"
	default:
		return "ongoing"
	}
}
