package models

// Viewer 已认证的调用者，由认证中间件解析后显式传入每个操作
type Viewer struct {
	Username    string       `json:"username"`
	IsAdmin     bool         `json:"is_admin"`
	Memberships []Membership `json:"memberships"`
}

// LeadClubs returns the clubs in which the viewer holds CL or VP.
func (v *Viewer) LeadClubs() []string {
	var clubs []string
	for _, m := range v.Memberships {
		if m.CanBroadcast() {
			clubs = append(clubs, m.ClubName)
		}
	}
	return clubs
}

// Leads reports whether the viewer holds CL or VP in club.
func (v *Viewer) Leads(club string) bool {
	for _, m := range v.Memberships {
		if m.ClubName == club && m.CanBroadcast() {
			return true
		}
	}
	return false
}

