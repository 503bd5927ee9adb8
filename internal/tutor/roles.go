package tutor

import "strings"

// Role is the persona the tutor adopts once a topic is chosen.
type Role int

const (
	RoleNone Role = iota
	RoleSeller
	RoleDoctor
	RoleWaiter
	RoleCinemaClerk
	RoleColleague
	RoleGenericPartner
)

func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "Seller"
	case RoleDoctor:
		return "Doctor"
	case RoleWaiter:
		return "Waiter"
	case RoleCinemaClerk:
		return "CinemaClerk"
	case RoleColleague:
		return "Colleague"
	case RoleGenericPartner:
		return "GenericPartner"
	default:
		return "None"
	}
}

// Persona is the German name of the role used in prompts and transcripts.
func (r Role) Persona() string {
	switch r {
	case RoleSeller:
		return "Verkäufer"
	case RoleDoctor:
		return "Arzt"
	case RoleWaiter:
		return "Kellner"
	case RoleCinemaClerk:
		return "Kinoverkäufer"
	case RoleColleague:
		return "Arbeitskollege"
	case RoleGenericPartner:
		return "Gesprächspartner"
	default:
		return "Lehrer"
	}
}

// roleKeywords is evaluated in order; the first matching role wins.
var roleKeywords = []struct {
	role     Role
	keywords []string
}{
	{RoleSeller, []string{"einkauf", "kaufen", "shop"}},
	{RoleDoctor, []string{"arzt", "doktor", "krank"}},
	{RoleWaiter, []string{"café", "restaurant", "essen"}},
	{RoleCinemaClerk, []string{"kino", "film"}},
	{RoleColleague, []string{"arbeit", "job"}},
}

// ClassifyRole maps a topic utterance to the role the tutor should play.
func ClassifyRole(topic string) Role {
	lower := strings.ToLower(topic)
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(lower, kw) {
				return rk.role
			}
		}
	}
	return RoleGenericPartner
}
